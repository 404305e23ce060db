package export

import (
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/SAP-F-2025/qti-delivery-service/internal/runtime"
)

const (
	sheetSummary  = "Session"
	sheetItems    = "Items"
	sheetOutcomes = "Outcomes"
)

// BuildSessionWorkbook renders one delivery session as a spreadsheet:
// a summary sheet, one row per route item, and the test outcomes.
func BuildSessionWorkbook(session *runtime.AssessmentTestSession) (*excelize.File, error) {
	f := excelize.NewFile()

	if err := writeSummary(f, session); err != nil {
		return nil, err
	}
	if err := writeItems(f, session); err != nil {
		return nil, err
	}
	if err := writeOutcomes(f, session); err != nil {
		return nil, err
	}

	f.DeleteSheet("Sheet1")
	idx, err := f.GetSheetIndex(sheetSummary)
	if err != nil {
		return nil, err
	}
	f.SetActiveSheet(idx)
	return f, nil
}

func writeSummary(f *excelize.File, session *runtime.AssessmentTestSession) error {
	if _, err := f.NewSheet(sheetSummary); err != nil {
		return fmt.Errorf("creating summary sheet: %w", err)
	}

	rows := [][]interface{}{
		{"Session ID", session.SessionID},
		{"Test", session.Test.Identifier},
		{"State", session.State.String()},
		{"Route position", session.Route.Position()},
		{"Route length", session.Route.Count()},
		{"Visited test parts", len(session.VisitedTestParts)},
		{"Last processing", formatTime(session.LastProcessingTime)},
	}
	if session.TimeReference != nil {
		rows = append(rows, []interface{}{"Started", formatTime(*session.TimeReference)})
	}
	if d, ok := session.Durations()[session.Test.Identifier]; ok {
		rows = append(rows, []interface{}{"Total duration (s)", d.Seconds()})
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheetSummary, cell, &row); err != nil {
			return fmt.Errorf("writing summary row %d: %w", i+1, err)
		}
	}
	return nil
}

func writeItems(f *excelize.File, session *runtime.AssessmentTestSession) error {
	if _, err := f.NewSheet(sheetItems); err != nil {
		return fmt.Errorf("creating items sheet: %w", err)
	}

	header := []interface{}{"Item", "Occurrence", "Section", "State", "Attempts", "Completion", "Duration (s)", "Score"}
	if err := f.SetSheetRow(sheetItems, "A1", &header); err != nil {
		return err
	}

	for i, ri := range session.Route.Items() {
		row := []interface{}{ri.ItemRef.Identifier, ri.Occurrence, sectionName(ri)}
		if is, ok := session.ItemSession(ri.ItemRef.Identifier, ri.Occurrence); ok {
			row = append(row, is.State.String(), is.NumAttempts, is.CompletionStatus, is.Duration.Seconds())
			if score, found := is.Variable("SCORE"); found && !score.IsNull() {
				row = append(row, score.Scalar.Float)
			}
		}

		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheetItems, cell, &row); err != nil {
			return fmt.Errorf("writing item row %d: %w", i+2, err)
		}
	}
	return nil
}

func writeOutcomes(f *excelize.File, session *runtime.AssessmentTestSession) error {
	if _, err := f.NewSheet(sheetOutcomes); err != nil {
		return fmt.Errorf("creating outcomes sheet: %w", err)
	}

	header := []interface{}{"Outcome", "Value"}
	if err := f.SetSheetRow(sheetOutcomes, "A1", &header); err != nil {
		return err
	}

	for i, name := range session.OutcomeNames() {
		value := session.Outcome(name).Value
		rendered := ""
		if strs := value.Strings(); len(strs) > 0 {
			rendered = strs[0]
			for _, s := range strs[1:] {
				rendered += ", " + s
			}
		}
		row := []interface{}{name, rendered}

		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheetOutcomes, cell, &row); err != nil {
			return fmt.Errorf("writing outcome row %d: %w", i+2, err)
		}
	}
	return nil
}

func sectionName(ri *runtime.RouteItem) string {
	if sec := ri.Section(); sec != nil {
		return sec.Identifier
	}
	return ""
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
