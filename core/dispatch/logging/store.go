// Package logging persists one record per finished trip and answers filtered
// queries over them.
package logging

import (
	"context"
	"time"

	"github.com/kilianp07/liftsim/core/model"
)

// LogRecord captures one finished trip.
type LogRecord struct {
	Timestamp  time.Time       `json:"timestamp"`
	TripID     string          `json:"trip_id"`
	CarID      string          `json:"car_id"`
	Origin     model.Floor     `json:"origin"`
	Floor      model.Floor     `json:"floor"`
	SimTimeMS  int64           `json:"sim_time_ms"`
	DurationMS int64           `json:"duration_ms"`
	Reroutes   int             `json:"reroutes"`
	Served     []model.Request `json:"served"`
}

// LogQuery defines filters for retrieving records. Zero values match all.
type LogQuery struct {
	Start time.Time
	End   time.Time
	CarID string
	Floor *model.Floor
	Limit int
}

// Matches reports whether r passes the filters of q, ignoring Limit.
func (q LogQuery) Matches(r LogRecord) bool {
	if !q.Start.IsZero() && r.Timestamp.Before(q.Start) {
		return false
	}
	if !q.End.IsZero() && r.Timestamp.After(q.End) {
		return false
	}
	if q.CarID != "" && r.CarID != q.CarID {
		return false
	}
	if q.Floor != nil && r.Floor != *q.Floor {
		return false
	}
	return true
}

func (q LogQuery) limit(recs []LogRecord) []LogRecord {
	if q.Limit > 0 && len(recs) > q.Limit {
		return recs[len(recs)-q.Limit:]
	}
	return recs
}

// LogStore persists LogRecords and supports querying.
type LogStore interface {
	Append(ctx context.Context, rec LogRecord) error
	Query(ctx context.Context, q LogQuery) ([]LogRecord, error)
	Close() error
}

// NopStore discards every record.
type NopStore struct{}

func (NopStore) Append(context.Context, LogRecord) error              { return nil }
func (NopStore) Query(context.Context, LogQuery) ([]LogRecord, error) { return nil, nil }
func (NopStore) Close() error                                         { return nil }
