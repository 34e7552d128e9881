package api

import (
	"io"
	"math"
	"strconv"
	"time"

	json "github.com/goccy/go-json"
)

type CreateRunReq struct {
	Name  string `json:"name"`
	Seed  int64  `json:"seed,omitempty"`
	Notes string `json:"notes,omitempty"`
}

type RunResp struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	Seed      int64     `json:"seed"`
	Notes     string    `json:"notes,omitempty"`
}

type ListRunsResp struct {
	Runs []RunResp `json:"runs"`
}

type DeleteRunResp struct {
	ID      string `json:"id"`
	Deleted bool   `json:"deleted"`
}

type AppendPointsReq struct {
	Points []PointReq `json:"points"`
}

type PointReq struct {
	Series string      `json:"series"`
	Step   int         `json:"step"`
	Value  MetricValue `json:"value"`
}

type AppendPointsResp struct {
	Appended int `json:"appended"`
}

type SeriesInfoResp struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

type ListSeriesResp struct {
	Series []SeriesInfoResp `json:"series"`
}

type SeriesResp struct {
	Name   string        `json:"name"`
	Values []MetricValue `json:"values"`
}

// MetricValue is a float64 whose JSON form tolerates diverged training:
// NaN and the infinities, which encoding/json rejects outright, encode as
// null and decode back to NaN.
type MetricValue float64

func (v MetricValue) MarshalJSON() ([]byte, error) {
	f := float64(v)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return []byte("null"), nil
	}
	return strconv.AppendFloat(nil, f, 'g', -1, 64), nil
}

func (v *MetricValue) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*v = MetricValue(math.NaN())
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		return err
	}
	*v = MetricValue(f)
	return nil
}

func metricValues(values []float64) []MetricValue {
	out := make([]MetricValue, len(values))
	for i, f := range values {
		out[i] = MetricValue(f)
	}
	return out
}

func decodeJSON[T any](r io.Reader) (T, error) {
	var out T
	dec := json.NewDecoder(r)
	if err := dec.Decode(&out); err != nil {
		return out, err
	}
	return out, nil
}
