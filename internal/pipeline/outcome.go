package pipeline

import (
	"encoding/json"

	"github.com/querygenie/querygenie/internal/resultset"
	"github.com/querygenie/querygenie/internal/safety"
)

// OutcomeType discriminates the structured payload variants a pipeline run
// can produce. Exactly one variant is emitted per run.
type OutcomeType string

const (
	OutcomeSelect               OutcomeType = "select"
	OutcomeStatus               OutcomeType = "status"
	OutcomeError                OutcomeType = "error"
	OutcomeConfirmationRequired OutcomeType = "confirmation_required"
)

// Outcome is the discriminated result of running a statement through the
// pipeline. Only the fields of the active variant are serialized.
type Outcome struct {
	Type OutcomeType

	// select
	Data     [][]string
	Columns  []string
	RowCount int

	// status
	Message      string
	AffectedRows int

	// confirmation_required
	SQL      string
	Table    safety.Preview
	Warnings []string
}

func SelectOutcome(table resultset.Table) Outcome {
	return Outcome{
		Type:     OutcomeSelect,
		Data:     table.Rows,
		Columns:  table.Columns,
		RowCount: table.RowCount,
	}
}

func StatusOutcome(message string, affectedRows int) Outcome {
	return Outcome{Type: OutcomeStatus, Message: message, AffectedRows: affectedRows}
}

func ErrorOutcome(message string) Outcome {
	return Outcome{Type: OutcomeError, Message: message}
}

func ConfirmationOutcome(sql string, preview safety.Preview, warnings []string) Outcome {
	return Outcome{Type: OutcomeConfirmationRequired, SQL: sql, Table: preview, Warnings: warnings}
}

func (o Outcome) MarshalJSON() ([]byte, error) {
	switch o.Type {
	case OutcomeSelect:
		data := o.Data
		if data == nil {
			data = [][]string{}
		}
		columns := o.Columns
		if columns == nil {
			columns = []string{}
		}
		return json.Marshal(struct {
			Type     OutcomeType `json:"type"`
			Data     [][]string  `json:"data"`
			Columns  []string    `json:"columns"`
			RowCount int         `json:"row_count"`
		}{o.Type, data, columns, o.RowCount})
	case OutcomeStatus:
		return json.Marshal(struct {
			Type         OutcomeType `json:"type"`
			Message      string      `json:"message"`
			AffectedRows int         `json:"affected_rows"`
		}{o.Type, o.Message, o.AffectedRows})
	case OutcomeConfirmationRequired:
		warnings := o.Warnings
		if warnings == nil {
			warnings = []string{}
		}
		return json.Marshal(struct {
			Type     OutcomeType    `json:"type"`
			SQL      string         `json:"sql"`
			Table    safety.Preview `json:"table"`
			Warnings []string       `json:"warnings"`
		}{o.Type, o.SQL, o.Table, warnings})
	default:
		return json.Marshal(struct {
			Type    OutcomeType `json:"type"`
			Message string      `json:"message"`
		}{OutcomeError, o.Message})
	}
}
