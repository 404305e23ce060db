package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/SAP-F-2025/qti-delivery-service/internal/export"
	"github.com/SAP-F-2025/qti-delivery-service/internal/repositories"
)

type exportService struct {
	repo   repositories.SessionRepository
	logger *slog.Logger
}

func NewExportService(repo repositories.SessionRepository, logger *slog.Logger) ExportService {
	return &exportService{repo: repo, logger: logger}
}

func (s *exportService) ExportSessionReport(ctx context.Context, sessionID string) ([]byte, error) {
	s.logger.Info("Exporting session report", "session_id", sessionID)

	session, err := s.repo.Retrieve(ctx, sessionID)
	if err != nil {
		if errors.Is(err, repositories.ErrBlobNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to retrieve session: %w", err)
	}

	workbook, err := export.BuildSessionWorkbook(session)
	if err != nil {
		return nil, fmt.Errorf("failed to build report: %w", err)
	}
	defer workbook.Close()

	buf, err := workbook.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to serialize report: %w", err)
	}
	return buf.Bytes(), nil
}
