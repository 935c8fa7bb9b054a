// Package csvsource reads a catalog export into header-keyed rows.
package csvsource

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ashwini-1013/org-workspace/internal/core/domain"
)

// ErrFileNotFound is returned when the catalog file does not exist.
var ErrFileNotFound = errors.New("csvsource: catalog file not found")

// File is a ports.CatalogSource backed by a CSV file on disk.
type File struct {
	Path string
}

func NewFile(path string) *File {
	return &File{Path: path}
}

func (f *File) ReadRows(ctx context.Context) ([]domain.CatalogRow, error) {
	fh, err := os.Open(f.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, f.Path)
		}
		return nil, fmt.Errorf("csvsource: open %s: %w", f.Path, err)
	}
	defer fh.Close()
	return Read(ctx, fh)
}

// Read parses r. The first record is the header; column names are trimmed,
// lower-cased and stripped of a UTF-8 byte order mark. Short records leave
// the missing columns out of the row.
func Read(ctx context.Context, r io.Reader) ([]domain.CatalogRow, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("csvsource: read header: %w", err)
	}
	for i, h := range header {
		if i == 0 {
			h = strings.TrimPrefix(h, "\ufeff")
		}
		header[i] = strings.ToLower(strings.TrimSpace(h))
	}

	var rows []domain.CatalogRow
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("csvsource: read record %d: %w", len(rows)+1, err)
		}

		row := make(domain.CatalogRow, len(header))
		for i, name := range header {
			if name == "" || i >= len(record) {
				continue
			}
			row[name] = record[i]
		}
		rows = append(rows, row)
	}
	return rows, nil
}
