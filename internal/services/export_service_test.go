package services

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/SAP-F-2025/qti-delivery-service/internal/processing"
	"github.com/SAP-F-2025/qti-delivery-service/internal/repositories"
	"github.com/SAP-F-2025/qti-delivery-service/internal/runtime"
)

func exportServiceForTest(t *testing.T) (ExportService, repositories.SessionRepository) {
	t.Helper()
	store, err := repositories.NewFilesystemStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFilesystemStore() error = %v", err)
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	repo := repositories.NewSessionRepository(repositories.SessionRepositoryConfig{
		Test:              deliveryFixtureTest(),
		Store:             store,
		ResponseProcessor: processing.NewEngine(),
		OutcomeProcessor:  processing.NewWeightedScoreProcessor(),
		Rand:              runtime.NewSeededRand(1),
		Logger:            logger,
	})
	return NewExportService(repo, logger), repo
}

func TestExportSessionReport(t *testing.T) {
	svc, repo := exportServiceForTest(t)
	ctx := context.Background()

	session, err := repo.Instantiate(ctx)
	if err != nil {
		t.Fatalf("Instantiate() error = %v", err)
	}
	if err := session.BeginTestSession(); err != nil {
		t.Fatalf("BeginTestSession() error = %v", err)
	}
	if err := repo.Persist(ctx, session); err != nil {
		t.Fatalf("Persist() error = %v", err)
	}

	data, err := svc.ExportSessionReport(ctx, session.SessionID)
	if err != nil {
		t.Fatalf("ExportSessionReport() error = %v", err)
	}
	if len(data) == 0 {
		t.Fatal("ExportSessionReport() returned an empty workbook")
	}

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("OpenReader() error = %v", err)
	}
	defer f.Close()
	if got, err := f.GetCellValue("Session", "B1"); err != nil || got != session.SessionID {
		t.Errorf("Session!B1 = %q, %v", got, err)
	}
}

func TestExportSessionReportNotFound(t *testing.T) {
	svc, _ := exportServiceForTest(t)

	if _, err := svc.ExportSessionReport(context.Background(), "no-such-id"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("ExportSessionReport() error = %v, want ErrSessionNotFound", err)
	}
}
