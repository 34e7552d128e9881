package trace

import (
	"errors"
	"fmt"
	"time"

	json "github.com/goccy/go-json"
)

// RunInfo describes the training run a trace was recorded from.
//
// It is stored as a JSON document in the RunInfo section, so new fields can
// be added without a format bump.
type RunInfo struct {
	RunID     string             `json:"run_id"`
	Name      string             `json:"name,omitempty"`
	StartedAt time.Time          `json:"started_at"`
	Seed      int64              `json:"seed"`
	Steps     int                `json:"steps,omitempty"`
	Params    map[string]float64 `json:"params,omitempty"`
	Notes     string             `json:"notes,omitempty"`
}

// EncodeRunInfo serialises the run-info document for the RunInfo section.
func EncodeRunInfo(ri *RunInfo) ([]byte, error) {
	if ri == nil {
		return nil, errors.New("trace: nil RunInfo")
	}
	if ri.RunID == "" {
		return nil, errors.New("trace: run info missing run_id")
	}
	return json.Marshal(ri)
}

// ParseRunInfo decodes a RunInfo section payload.
func ParseRunInfo(data []byte) (*RunInfo, error) {
	var ri RunInfo
	if err := json.Unmarshal(data, &ri); err != nil {
		return nil, fmt.Errorf("trace: run info: %w", err)
	}
	if ri.RunID == "" {
		return nil, errors.New("trace: run info missing run_id")
	}
	return &ri, nil
}
