package manifest

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/xuri/excelize/v2"

	"github.com/matzehuels/chartsnap/pkg/batch"
	"github.com/matzehuels/chartsnap/pkg/errors"
)

// SheetName is the worksheet holding entries.
const SheetName = "Manifest"

var xlsxHeader = []any{"Run", "Index", "Stem", "Status", "Coordinates", "Files", "Error", "Duration (ms)", "Time"}

// XLSXStore collects entries into a spreadsheet saved on Close.
type XLSXStore struct {
	mu   sync.Mutex
	f    *excelize.File
	path string
	row  int
}

// NewXLSXStore prepares a workbook to be written to path.
func NewXLSXStore(path string) (*XLSXStore, error) {
	if path == "" {
		return nil, errors.New(errors.ErrCodeInvalidPath, "manifest path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "create manifest directory")
	}

	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		f.Close()
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "name sheet")
	}
	if err := f.SetSheetRow(SheetName, "A1", &xlsxHeader); err != nil {
		f.Close()
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "write header")
	}
	if style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err == nil {
		_ = f.SetRowStyle(SheetName, 1, 1, style)
	}
	return &XLSXStore{f: f, path: path, row: 1}, nil
}

// Record adds one row.
func (s *XLSXStore) Record(ctx context.Context, o batch.Outcome) error {
	e := FromOutcome(o)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.f == nil {
		return errors.New(errors.ErrCodeInternal, "manifest closed")
	}
	s.row++
	cell, err := excelize.CoordinatesToCellName(1, s.row)
	if err != nil {
		return err
	}
	values := []any{
		e.RunID,
		e.Index,
		e.Stem,
		string(e.Status),
		coords(e.Coords),
		strings.Join(e.Files, ", "),
		e.Error,
		e.Duration,
		e.Time.Format("2006-01-02 15:04:05"),
	}
	return s.f.SetSheetRow(SheetName, cell, &values)
}

// Close saves the workbook.
func (s *XLSXStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.f == nil {
		return nil
	}
	f := s.f
	s.f = nil
	defer f.Close()
	if err := f.SaveAs(s.path); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "save manifest %s", s.path)
	}
	return nil
}

// coords formats coordinates as sorted "name=label" pairs.
func coords(m map[string]string) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + "=" + m[k]
	}
	return strings.Join(parts, " ")
}
