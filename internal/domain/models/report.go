package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// StatisticsSnapshot is a point-in-time copy of the dashboard statistics stored in MongoDB.
type StatisticsSnapshot struct {
	ID                    string          `bson:"_id" json:"id"`
	TakenAt               time.Time       `bson:"taken_at" json:"taken_at"`
	TotalRecords          int             `bson:"total_records" json:"total_records"`
	IncompleteCount       int             `bson:"incomplete_count" json:"incomplete_count"`
	CompletedCount        int             `bson:"completed_count" json:"completed_count"`
	TotalDifferenceAmount decimal.Decimal `bson:"-" json:"total_difference_amount"`
	// TotalDifferenceText carries the exact amount for BSON, which has no decimal.Decimal codec.
	TotalDifferenceText string `bson:"total_difference_amount" json:"-"`
}

// NewStatisticsSnapshot stamps stats with a fresh identifier and takenAt.
func NewStatisticsSnapshot(stats Statistics, takenAt time.Time) StatisticsSnapshot {
	return StatisticsSnapshot{
		ID:                    uuid.NewString(),
		TakenAt:               takenAt.UTC(),
		TotalRecords:          stats.IncompleteCount + stats.CompletedCount,
		IncompleteCount:       stats.IncompleteCount,
		CompletedCount:        stats.CompletedCount,
		TotalDifferenceAmount: stats.TotalDifferenceAmount,
		TotalDifferenceText:   stats.TotalDifferenceAmount.String(),
	}
}

// RestoreAmount parses TotalDifferenceText back into TotalDifferenceAmount after decoding.
func (s *StatisticsSnapshot) RestoreAmount() error {
	if s.TotalDifferenceText == "" {
		s.TotalDifferenceAmount = decimal.Zero
		return nil
	}
	amount, err := decimal.NewFromString(s.TotalDifferenceText)
	if err != nil {
		return fmt.Errorf("snapshot %s amount %q: %w", s.ID, s.TotalDifferenceText, err)
	}
	s.TotalDifferenceAmount = amount
	return nil
}
