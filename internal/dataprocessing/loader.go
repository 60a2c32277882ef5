package dataprocessing

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"subscli/internal/errors"
)

// SourceFormat identifies the physical encoding of a subscription source
// file. The loader picks it from the file extension.
type SourceFormat string

const (
	FormatCSV  SourceFormat = "csv"
	FormatXLSX SourceFormat = "xlsx"
)

// RawTable is the format-independent result of reading one source file:
// the header row and every data row as raw strings. Rows may be ragged
// (shorter than the header); the cleaner treats absent cells as empty.
type RawTable struct {
	Header     []string
	Rows       [][]string
	SourcePath string
	Format     SourceFormat
}

// Loader reads a single subscription source file into a RawTable. It
// never interprets cell values; that is the cleaner's job.
type Loader struct {
	logger *slog.Logger
}

// NewLoader creates a loader. A nil logger falls back to slog.Default.
func NewLoader(logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{logger: logger}
}

// Load reads the source file at path, dispatching on its extension.
// A path that cannot be located, read, or matched to a supported format
// yields a SourceUnavailable error carrying the attempted path; no
// partial table accompanies it.
func (l *Loader) Load(ctx context.Context, path string) (*RawTable, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, errors.NewSourceUnavailableError(path, err)
	}
	if info.IsDir() {
		return nil, errors.NewSourceUnavailableError(path, fmt.Errorf("%s is a directory, not a file", path))
	}

	switch DetectFormat(path) {
	case FormatCSV:
		return l.loadCSV(ctx, path)
	case FormatXLSX:
		return l.loadXLSX(ctx, path)
	default:
		return nil, errors.NewSourceUnavailableError(path,
			fmt.Errorf("unsupported source format %q", filepath.Ext(path)))
	}
}

// DetectFormat classifies a source path by extension. An empty result
// means the file is not a supported subscription source.
func DetectFormat(path string) SourceFormat {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return FormatCSV
	case ".xlsx", ".xls":
		return FormatXLSX
	default:
		return ""
	}
}

func (l *Loader) loadCSV(ctx context.Context, path string) (*RawTable, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.NewSourceUnavailableError(path, err)
	}

	// Remove UTF-8 BOM if present
	if len(content) >= 3 && content[0] == 0xEF && content[1] == 0xBB && content[2] == 0xBF {
		content = content[3:]
	}

	reader := csv.NewReader(bytes.NewReader(content))
	reader.FieldsPerRecord = -1

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, errors.NewParsingError("failed to parse CSV source", err).
			WithContext("path", path)
	}
	if len(rows) == 0 {
		return nil, errors.NewParsingError("source file has no header row", nil).
			WithContext("path", path)
	}

	table := &RawTable{
		Header:     rows[0],
		Rows:       rows[1:],
		SourcePath: path,
		Format:     FormatCSV,
	}

	l.logger.InfoContext(ctx, "loaded CSV source",
		slog.String("path", path),
		slog.Int("data_rows", len(table.Rows)))

	return table, nil
}

func (l *Loader) loadXLSX(ctx context.Context, path string) (*RawTable, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, errors.NewParsingError("failed to open workbook", err).
			WithContext("path", path)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.NewParsingError("workbook has no sheets", nil).
			WithContext("path", path)
	}

	// The header contract binds the first sheet only.
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, errors.NewParsingError(
			fmt.Sprintf("failed to read sheet %q", sheets[0]), err).
			WithContext("path", path)
	}
	if len(rows) == 0 {
		return nil, errors.NewParsingError("source file has no header row", nil).
			WithContext("path", path)
	}

	table := &RawTable{
		Header:     rows[0],
		Rows:       rows[1:],
		SourcePath: path,
		Format:     FormatXLSX,
	}

	l.logger.InfoContext(ctx, "loaded XLSX source",
		slog.String("path", path),
		slog.String("sheet", sheets[0]),
		slog.Int("data_rows", len(table.Rows)))

	return table, nil
}
