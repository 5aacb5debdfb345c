package sheet

import (
	"context"
	"encoding/csv"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/fullstackverse/form-gateway/internal/domain"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	path := filepath.Join(t.TempDir(), "submissions.csv")
	return NewStore(path, logger, time.Second)
}

func sampleRow() domain.StoredRow {
	budget := "5000"
	return domain.StoredRow{
		Timestamp: time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC),
		Submission: domain.Submission{
			FullName:           "Jane Doe",
			Email:              "jane@x.com",
			ContactNumber:      "15551234567",
			ProjectDescription: "Build a site, with commas\nand a newline",
			Budget:             &budget,
			Type:               "rfp",
		},
		ClientID: "1.2.3.4",
	}
}

func TestAppendAndReadBack(t *testing.T) {
	store := newTestStore(t)
	want := sampleRow()

	if err := store.AppendRow(context.Background(), want); err != nil {
		t.Fatalf("AppendRow failed: %v", err)
	}

	rows, err := store.ReadRows(context.Background())
	if err != nil {
		t.Fatalf("ReadRows failed: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}

	got := rows[0]
	if got.FullName != want.FullName ||
		got.Email != want.Email ||
		got.ContactNumber != want.ContactNumber ||
		got.ProjectDescription != want.ProjectDescription ||
		got.Type != want.Type {
		t.Errorf("round trip mismatch: got %+v, want %+v", got.Submission, want.Submission)
	}
	if got.Budget == nil || *got.Budget != *want.Budget {
		t.Errorf("budget round trip mismatch: got %v, want %q", got.Budget, *want.Budget)
	}
	if !got.Timestamp.Equal(want.Timestamp) {
		t.Errorf("timestamp round trip mismatch: got %v, want %v", got.Timestamp, want.Timestamp)
	}
	if got.ClientID != want.ClientID {
		t.Errorf("client id round trip mismatch: got %q, want %q", got.ClientID, want.ClientID)
	}
}

func TestHeaderWrittenOnce(t *testing.T) {
	store := newTestStore(t)

	for i := 0; i < 3; i++ {
		if err := store.AppendRow(context.Background(), sampleRow()); err != nil {
			t.Fatalf("AppendRow %d failed: %v", i, err)
		}
	}

	f, err := os.Open(store.path)
	if err != nil {
		t.Fatalf("failed to open sheet: %v", err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("failed to read sheet: %v", err)
	}
	if len(records) != 4 {
		t.Fatalf("expected header + 3 rows, got %d records", len(records))
	}
	if records[0][0] != "Timestamp" || records[0][7] != "Client IP" {
		t.Errorf("unexpected header row: %v", records[0])
	}
	for i, record := range records[1:] {
		if record[0] == "Timestamp" {
			t.Errorf("duplicate header at data row %d", i)
		}
	}
}

func TestAppendOrderPreserved(t *testing.T) {
	store := newTestStore(t)

	names := []string{"first", "second", "third", "fourth"}
	for _, name := range names {
		row := sampleRow()
		row.FullName = name
		if err := store.AppendRow(context.Background(), row); err != nil {
			t.Fatalf("AppendRow failed: %v", err)
		}
	}

	rows, err := store.ReadRows(context.Background())
	if err != nil {
		t.Fatalf("ReadRows failed: %v", err)
	}
	if len(rows) != len(names) {
		t.Fatalf("expected %d rows, got %d", len(names), len(rows))
	}
	for i, name := range names {
		if rows[i].FullName != name {
			t.Errorf("row %d = %q, want %q (insertion order broken)", i, rows[i].FullName, name)
		}
	}
}

func TestConcurrentAppends(t *testing.T) {
	const n = 20

	store := newTestStore(t)

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := store.AppendRow(context.Background(), sampleRow()); err != nil {
				t.Errorf("concurrent AppendRow failed: %v", err)
			}
		}()
	}
	wg.Wait()

	rows, err := store.ReadRows(context.Background())
	if err != nil {
		t.Fatalf("ReadRows failed: %v", err)
	}
	if len(rows) != n {
		t.Errorf("expected %d rows, got %d", n, len(rows))
	}
}

func TestLockWaitBounded(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	path := filepath.Join(t.TempDir(), "submissions.csv")
	store := NewStore(path, logger, 50*time.Millisecond)

	// Hold the lock so the append below has to time out.
	release, err := store.acquire(context.Background())
	if err != nil {
		t.Fatalf("failed to take the lock: %v", err)
	}
	defer release()

	err = store.AppendRow(context.Background(), sampleRow())
	if !errors.Is(err, domain.ErrLockTimeout) {
		t.Errorf("expected ErrLockTimeout, got %v", err)
	}
}

func TestNilBudgetStoredEmpty(t *testing.T) {
	store := newTestStore(t)
	row := sampleRow()
	row.Budget = nil
	row.Type = "web"

	if err := store.AppendRow(context.Background(), row); err != nil {
		t.Fatalf("AppendRow failed: %v", err)
	}

	rows, err := store.ReadRows(context.Background())
	if err != nil {
		t.Fatalf("ReadRows failed: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	if rows[0].Budget != nil {
		t.Errorf("expected nil budget for non-proposal row, got %q", *rows[0].Budget)
	}
}
