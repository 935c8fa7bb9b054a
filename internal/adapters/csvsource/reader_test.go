package csvsource

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestRead(t *testing.T) {
	input := "\ufeffsong_name, Genre ,tempo,energy\n" +
		"\"Hello, World\",pop,120.5,0.8\n" +
		"Short,rock\n"

	rows, err := Read(context.Background(), strings.NewReader(input))
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0]["song_name"] != "Hello, World" || rows[0]["genre"] != "pop" || rows[0]["tempo"] != "120.5" {
		t.Fatalf("unexpected first row %v", rows[0])
	}
	if _, ok := rows[1]["energy"]; ok || rows[1]["genre"] != "rock" {
		t.Fatalf("short record should omit missing columns, got %v", rows[1])
	}
}

func TestRead_Empty(t *testing.T) {
	rows, err := Read(context.Background(), strings.NewReader(""))
	if err != nil || len(rows) != 0 {
		t.Fatalf("expected no rows, got %v, %v", rows, err)
	}
}

func TestRead_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Read(ctx, strings.NewReader("a\n1\n")); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context canceled, got %v", err)
	}
}

func TestFile_ReadRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "genres.csv")
	if err := os.WriteFile(path, []byte("song_name,artist\nImagine,John Lennon\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	rows, err := NewFile(path).ReadRows(context.Background())
	if err != nil {
		t.Fatalf("ReadRows: %v", err)
	}
	if len(rows) != 1 || rows[0]["artist"] != "John Lennon" {
		t.Fatalf("unexpected rows %v", rows)
	}

	_, err = NewFile(filepath.Join(t.TempDir(), "missing.csv")).ReadRows(context.Background())
	if !errors.Is(err, ErrFileNotFound) {
		t.Fatalf("expected ErrFileNotFound, got %v", err)
	}
}
