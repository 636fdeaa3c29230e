// api/store/report_store.go
package store

import (
	"context"
	"database/sql"
	"fmt"

	"sitepulse/api/logger"
	"sitepulse/api/models"
)

// defaultRecentLimit is how many audit rows a listing returns when the
// caller does not ask for a specific amount; maxRecentLimit caps it.
const (
	defaultRecentLimit = 20
	maxRecentLimit     = 100
)

// ReportStore persists report run outcomes in PostgreSQL.
type ReportStore struct {
	DB  *sql.DB
	log logger.Logger
}

func NewReportStore(db *sql.DB, log logger.Logger) *ReportStore {
	return &ReportStore{
		DB:  db,
		log: log,
	}
}

// InsertEntries appends the outcomes of one report run. All entries go in a
// single transaction so a run is audited either completely or not at all.
func (s *ReportStore) InsertEntries(ctx context.Context, entries []models.ReportEntry) error {
	if len(entries) == 0 {
		return nil
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin report log transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	const insertQuery = `
		INSERT INTO report_log (report_id, channel_id, site, unique_visitors, status, detail, reported_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	for _, e := range entries {
		if _, err := tx.ExecContext(ctx, insertQuery,
			e.ReportID,
			e.ChannelID,
			e.Site,
			e.UniqueVisitors,
			e.Status,
			e.Detail,
			e.ReportedAt,
		); err != nil {
			return fmt.Errorf("failed to insert report entry for site %q: %w", e.Site, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit report log transaction: %w", err)
	}

	s.log.Debug("report entries stored", logger.Int("count", len(entries)))
	return nil
}

// RecentReports returns the latest audit rows, newest first. A non-positive
// limit falls back to the default.
func (s *ReportStore) RecentReports(ctx context.Context, limit int) ([]models.ReportEntry, error) {
	if limit <= 0 {
		limit = defaultRecentLimit
	}
	if limit > maxRecentLimit {
		limit = maxRecentLimit
	}

	const query = `
		SELECT id, report_id, channel_id, site, unique_visitors, status, detail, reported_at
		FROM report_log
		ORDER BY reported_at DESC, id DESC
		LIMIT $1
	`

	rows, err := s.DB.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query report log: %w", err)
	}
	defer rows.Close()

	var entries []models.ReportEntry
	for rows.Next() {
		var e models.ReportEntry
		if err := rows.Scan(
			&e.ID,
			&e.ReportID,
			&e.ChannelID,
			&e.Site,
			&e.UniqueVisitors,
			&e.Status,
			&e.Detail,
			&e.ReportedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan report entry: %w", err)
		}
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row error while reading report log: %w", err)
	}

	return entries, nil
}
