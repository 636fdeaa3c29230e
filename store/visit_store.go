// api/store/visit_store.go
package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"sitepulse/api/database"
	"sitepulse/api/logger"
	"sitepulse/api/models"
)

// VisitStore persists raw visit events in ClickHouse and answers
// unique-visitor queries over them.
type VisitStore struct {
	DB  *database.ClickHouseClient
	log logger.Logger
}

func NewVisitStore(chClient *database.ClickHouseClient, log logger.Logger) *VisitStore {
	return &VisitStore{
		DB:  chClient,
		log: log,
	}
}

// InsertVisit appends one visit row. The surrogate ID and both timestamps
// are assigned here, at insertion time. Rows are never updated afterwards.
func (s *VisitStore) InsertVisit(ctx context.Context, visit *models.VisitRecord) error {
	if visit.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return fmt.Errorf("failed to generate visit id: %w", err)
		}
		visit.ID = id.String()
	}
	if visit.VisitedAt.IsZero() {
		visit.VisitedAt = time.Now()
	}
	visit.VisitedAt = visit.VisitedAt.UTC()
	y, m, d := visit.VisitedAt.Date()
	visit.VisitDate = time.Date(y, m, d, 0, 0, 0, 0, time.UTC)

	batch, err := s.DB.Conn.PrepareBatch(ctx, `
		INSERT INTO visits (id, visitor_hash, page_path, visited_at, visit_date)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare visit insert: %w", err)
	}

	if err := batch.Append(
		visit.ID,
		visit.VisitorHash,
		visit.PagePath,
		visit.VisitedAt,
		visit.VisitDate,
	); err != nil {
		return fmt.Errorf("failed to append visit row: %w", err)
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("failed to insert visit: %w", err)
	}

	s.log.Debug("visit recorded",
		logger.String("page_path", visit.PagePath),
		logger.String("visitor_hash", visit.VisitorHash))
	return nil
}

// CountUniqueVisitors returns the number of distinct visitor hashes whose
// visits fall inside the window. Zero with no error when there are none.
func (s *VisitStore) CountUniqueVisitors(ctx context.Context, window models.DailyWindow) (uint64, error) {
	// Boundary forms mirror models.DailyWindow.Contains: trailing windows
	// are (Start, End], calendar days [Start, End).
	query := `
		SELECT uniqExact(visitor_hash)
		FROM visits
		WHERE visited_at > ? AND visited_at <= ?
	`
	if window.WholeDay {
		query = `
			SELECT uniqExact(visitor_hash)
			FROM visits
			WHERE visited_at >= ? AND visited_at < ?
		`
	}

	var count uint64
	err := s.DB.Conn.QueryRow(ctx, query, window.Start, window.End).Scan(&count)
	if err != nil {
		if err.Error() == "sql: no rows in result set" {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to query unique visitors: %w", err)
	}

	return count, nil
}
