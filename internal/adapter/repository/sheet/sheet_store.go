package sheet

import (
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/fullstackverse/form-gateway/internal/domain"
)

const filePerm = 0644

// Store implements domain.SubmissionStore as a local CSV file with a header
// row, mirroring the spreadsheet layout. It is the fallback sink when no
// database is configured, and doubles as the test store.
//
// Appends are serialized by a single bounded-wait lock; the header is written
// exactly once, when the file is first created.
type Store struct {
	path   string
	logger *slog.Logger

	lockWait time.Duration
	sem      chan struct{}
}

// NewStore creates a CSV-backed submission store at path.
func NewStore(path string, logger *slog.Logger, lockWait time.Duration) *Store {
	return &Store{
		path:     path,
		logger:   logger.With("component", "sheet_store"),
		lockWait: lockWait,
		sem:      make(chan struct{}, 1),
	}
}

// AppendRow appends one submission as a CSV record, creating the file and its
// header row first if needed. The lock is released on every exit path.
func (s *Store) AppendRow(ctx context.Context, row domain.StoredRow) error {
	release, err := s.acquire(ctx)
	if err != nil {
		return err
	}
	defer release()

	if err := s.ensureHeader(); err != nil {
		return fmt.Errorf("failed to initialize sheet: %w", err)
	}

	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, filePerm)
	if err != nil {
		return fmt.Errorf("failed to open sheet %s: %w", s.path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(encodeRow(row)); err != nil {
		return fmt.Errorf("failed to write row: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to flush row: %w", err)
	}

	if err := f.Sync(); err != nil {
		return fmt.Errorf("failed to sync sheet: %w", err)
	}
	return nil
}

// ReadRows returns every data row in insertion order, skipping the header.
func (s *Store) ReadRows(ctx context.Context) ([]domain.StoredRow, error) {
	release, err := s.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	f, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open sheet %s: %w", s.path, err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet: %w", err)
	}
	if len(records) <= 1 {
		return nil, nil
	}

	rows := make([]domain.StoredRow, 0, len(records)-1)
	for _, record := range records[1:] {
		row, err := decodeRow(record)
		if err != nil {
			s.logger.Warn("skipping malformed sheet row", "error", err)
			continue
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func (s *Store) acquire(ctx context.Context) (func(), error) {
	timer := time.NewTimer(s.lockWait)
	defer timer.Stop()

	select {
	case s.sem <- struct{}{}:
		return func() { <-s.sem }, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-timer.C:
		return nil, domain.ErrLockTimeout
	}
}

// ensureHeader writes the header row when the sheet does not exist yet or is
// empty. Caller holds the lock.
func (s *Store) ensureHeader() error {
	stat, err := os.Stat(s.path)
	if err == nil && stat.Size() > 0 {
		return nil
	}
	if err != nil && !os.IsNotExist(err) {
		return err
	}

	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, filePerm)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(domain.HeaderRow); err != nil {
		return err
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}

	s.logger.Info("created sheet with header row", "path", s.path)
	return f.Sync()
}

func encodeRow(row domain.StoredRow) []string {
	budget := ""
	if row.Budget != nil {
		budget = *row.Budget
	}
	return []string{
		row.Timestamp.UTC().Format(time.RFC3339Nano),
		row.FullName,
		row.Email,
		row.ContactNumber,
		row.ProjectDescription,
		budget,
		row.Type,
		row.ClientID,
	}
}

func decodeRow(record []string) (domain.StoredRow, error) {
	if len(record) != len(domain.HeaderRow) {
		return domain.StoredRow{}, fmt.Errorf("expected %d columns, got %d", len(domain.HeaderRow), len(record))
	}

	ts, err := time.Parse(time.RFC3339Nano, record[0])
	if err != nil {
		return domain.StoredRow{}, fmt.Errorf("bad timestamp %q: %w", record[0], err)
	}

	row := domain.StoredRow{
		Timestamp: ts,
		Submission: domain.Submission{
			FullName:           record[1],
			Email:              record[2],
			ContactNumber:      record[3],
			ProjectDescription: record[4],
			Type:               record[6],
		},
		ClientID: record[7],
	}
	if row.Type == domain.ProposalType {
		budget := record[5]
		row.Budget = &budget
	}
	return row, nil
}
