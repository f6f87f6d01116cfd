package db

import (
	"time"

	"github.com/lib/pq"
)

// SearchHistory is one completed search interaction. Records are written
// once after a response is produced and never updated or deleted by the
// service.
type SearchHistory struct {
	ID        int64          `db:"id" json:"id"`
	Query     string         `db:"query" json:"query"`
	Response  string         `db:"response" json:"response"`
	Citations pq.StringArray `db:"citations" json:"citations"`
	Timestamp time.Time      `db:"timestamp" json:"timestamp"`
}
