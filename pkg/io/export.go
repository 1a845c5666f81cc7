package io

import (
	"encoding/json"
	"io"
	"os"

	"github.com/matzehuels/chartsnap/pkg/batch"
	"github.com/matzehuels/chartsnap/pkg/errors"
	"github.com/matzehuels/chartsnap/pkg/pipeline"
)

type artifact struct {
	Name     string `json:"name"`
	Location string `json:"location"`
	Layer    string `json:"layer"`
	Mode     string `json:"mode"`
	Size     int    `json:"size"`
	CacheHit bool   `json:"cache_hit,omitempty"`
}

// Result is the JSON form of one export.
type Result struct {
	Stem       string     `json:"stem"`
	Artifacts  []artifact `json:"artifacts"`
	DurationMS int64      `json:"duration_ms"`
}

// Report is the JSON form of a batch run.
type Report struct {
	RunID      string          `json:"run_id"`
	Total      int             `json:"total"`
	Succeeded  int             `json:"succeeded"`
	Failed     int             `json:"failed"`
	Skipped    int             `json:"skipped"`
	Artifacts  int             `json:"artifacts"`
	Failures   []batch.Failure `json:"failures,omitempty"`
	DurationMS int64           `json:"duration_ms"`
}

// NewResult converts res for encoding. A nil res yields no artifacts.
func NewResult(stem string, res *pipeline.Result) Result {
	out := Result{Stem: stem, Artifacts: []artifact{}}
	if res == nil {
		return out
	}
	for _, a := range res.Artifacts {
		out.Artifacts = append(out.Artifacts, artifact{
			Name:     a.Name,
			Location: a.Location,
			Layer:    a.Layer.String(),
			Mode:     a.Mode.String(),
			Size:     a.Size,
			CacheHit: a.CacheHit,
		})
	}
	out.DurationMS = res.Duration.Milliseconds()
	return out
}

// NewReport converts r for encoding.
func NewReport(r *batch.Report) Report {
	return Report{
		RunID:      r.RunID,
		Total:      r.Total,
		Succeeded:  r.Succeeded,
		Failed:     r.Failed,
		Skipped:    r.Skipped,
		Artifacts:  r.Artifacts,
		Failures:   r.Failures,
		DurationMS: r.Duration.Milliseconds(),
	}
}

// WriteResultJSON encodes an export result and writes it to w.
func WriteResultJSON(w io.Writer, stem string, res *pipeline.Result) error {
	return writeJSON(w, NewResult(stem, res))
}

// WriteReportJSON encodes a batch report and writes it to w.
func WriteReportJSON(w io.Writer, r *batch.Report) error {
	return writeJSON(w, NewReport(r))
}

// ExportReportJSON writes a batch report to a file at path.
func ExportReportJSON(r *batch.Report, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidPath, err, "create %s", path)
	}
	defer f.Close()
	return WriteReportJSON(f, r)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "encode")
	}
	return nil
}
