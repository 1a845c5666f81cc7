package manifest

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/matzehuels/chartsnap/pkg/batch"
	"github.com/matzehuels/chartsnap/pkg/errors"
)

func outcomes(t *testing.T) []batch.Outcome {
	t.Helper()
	plan, err := batch.NewPlan("bar", batch.Values("trend", "linear", "exponential"))
	if err != nil {
		t.Fatal(err)
	}
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	return []batch.Outcome{
		{RunID: "run-1", Item: plan.Item(0), Status: batch.StatusSucceeded, Files: []string{"bar-linear.png"}, Duration: 1500 * time.Millisecond, Time: now},
		{RunID: "run-1", Item: plan.Item(1), Status: batch.StatusFailed, Err: errors.New(errors.ErrCodeRasterDecode, "bad image"), Time: now},
	}
}

func TestFromOutcome(t *testing.T) {
	e := FromOutcome(outcomes(t)[1])
	if e.ID == "" || e.RunID != "run-1" || e.Index != 1 || e.Stem != "bar-exponential" {
		t.Errorf("entry = %+v", e)
	}
	if e.Coords["trend"] != "exponential" {
		t.Errorf("coords = %v", e.Coords)
	}
	if e.Status != batch.StatusFailed || e.Error == "" {
		t.Errorf("status/error = %v/%q", e.Status, e.Error)
	}
}

func TestJSONLStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "manifest.jsonl")
	s, err := Open(context.Background(), Config{Backend: BackendJSONL, Path: path})
	if err != nil {
		t.Fatal(err)
	}
	for _, o := range outcomes(t) {
		if err := s.Record(context.Background(), o); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}
	if err := s.Record(context.Background(), outcomes(t)[0]); err == nil {
		t.Error("Record after Close should fail")
	}

	entries, err := ReadJSONL(path)
	if err != nil {
		t.Fatalf("ReadJSONL: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("entries = %d, want 2", len(entries))
	}
	if entries[0].Files[0] != "bar-linear.png" || entries[0].Duration != 1500 {
		t.Errorf("entry 0 = %+v", entries[0])
	}
	if entries[1].Status != batch.StatusFailed {
		t.Errorf("entry 1 status = %v", entries[1].Status)
	}
}

func TestXLSXStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "manifest.xlsx")
	s, err := Open(context.Background(), Config{Backend: BackendXLSX, Path: path})
	if err != nil {
		t.Fatal(err)
	}
	for _, o := range outcomes(t) {
		if err := s.Record(context.Background(), o); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	defer f.Close()
	rows, err := f.GetRows(SheetName)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 3 {
		t.Fatalf("rows = %d, want 3", len(rows))
	}
	if rows[0][0] != "Run" || rows[1][2] != "bar-linear" || rows[2][3] != "failed" {
		t.Errorf("rows = %v", rows)
	}
	if rows[1][4] != "trend=linear" {
		t.Errorf("coordinates = %q", rows[1][4])
	}
}

func TestOpen(t *testing.T) {
	s, err := Open(context.Background(), Config{})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := s.(Discard); !ok {
		t.Errorf("empty backend = %T, want Discard", s)
	}

	if _, err := Open(context.Background(), Config{Backend: "csv"}); err == nil {
		t.Error("expected error for unknown backend")
	}
	if _, err := Open(context.Background(), Config{Backend: BackendJSONL}); err == nil {
		t.Error("expected error for missing path")
	}
	if _, err := Open(context.Background(), Config{Backend: BackendMongo, MongoURI: "http://x"}); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("bad mongo config error = %v", err)
	}
}

func TestMongoStoreIntegration(t *testing.T) {
	uri := os.Getenv("CHARTSNAP_MONGO_URI")
	if uri == "" {
		t.Skip("CHARTSNAP_MONGO_URI not set")
	}
	ctx := context.Background()
	s, err := NewMongoStore(ctx, uri, "chartsnap_test", "exports_"+time.Now().Format("150405"))
	if err != nil {
		t.Fatal(err)
	}
	defer func() {
		_ = s.coll.Drop(ctx)
		s.Close()
	}()

	for _, o := range outcomes(t) {
		if err := s.Record(ctx, o); err != nil {
			t.Fatal(err)
		}
	}
	entries, err := s.Run(ctx, "run-1")
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 || entries[0].Index != 0 {
		t.Errorf("entries = %+v", entries)
	}
}
