package pipeline

import (
	"encoding/json"
	"time"

	"github.com/couchcryptid/wind-power-etl/internal/domain"
)

// Report summarises one pipeline run.
type Report struct {
	StartedAt      time.Time             `json:"started_at"`
	FinishedAt     time.Time             `json:"finished_at"`
	Tables         []TableSummary        `json:"tables"`
	RowsLoaded     int                   `json:"rows_loaded"`
	RowsRejected   int                   `json:"rows_rejected"`
	Removed        map[domain.Source]int `json:"removed"`
	DroppedMissing int                   `json:"dropped_missing"`
	RowsWritten    int                   `json:"rows_written"`
	Fences         domain.FenceSet       `json:"fences"`
	Stages         map[string]Duration   `json:"stage_seconds"`
	Loaders        []string              `json:"loaders"`
}

// TableSummary describes one extracted table.
type TableSummary struct {
	File      string        `json:"file"`
	TurbineID string        `json:"turbine_id"`
	Source    domain.Source `json:"source"`
	Rows      int           `json:"rows"`
	Rejected  int           `json:"rejected"`
}

// Duration marshals to JSON as fractional seconds.
type Duration time.Duration

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).Seconds())
}

func (r *Report) addTables(tables []domain.TurbineTable) {
	for _, t := range tables {
		r.Tables = append(r.Tables, TableSummary{
			File:      t.File.File,
			TurbineID: t.File.TurbineID,
			Source:    t.File.Source,
			Rows:      len(t.Readings),
			Rejected:  t.Rejected,
		})
		r.RowsLoaded += len(t.Readings)
		r.RowsRejected += t.Rejected
	}
}

func (r *Report) addResult(result domain.FilterResult) {
	r.Removed = result.Removed
	r.DroppedMissing = result.DroppedMissing
	r.RowsWritten = len(result.Readings)
	r.Fences = result.Fences
}
