package store

import (
	"context"
	"sort"
	"time"

	"learnscope/api/models"
)

// EventFilter is a set of optional, conjunctive predicates applied on read.
// Zero-valued fields are inactive.
type EventFilter struct {
	UserID string
	Page   string
	Start  *time.Time
	End    *time.Time
}

// EventStore is the append-only clickstream log. Records are never updated
// or deleted after insertion.
type EventStore interface {
	// Append persists one event and returns its server-assigned id. When
	// the event carries a clientEventId already present in the log, the
	// original id is returned and nothing is written.
	Append(ctx context.Context, ev models.InteractionEvent) (int64, error)
	// List returns, in insertion order, every event matching all active
	// predicates of the filter.
	List(ctx context.Context, f EventFilter) ([]models.InteractionEvent, error)
	// ListByUser returns one user's events sorted by timestamp descending,
	// events with unparseable timestamps last.
	ListByUser(ctx context.Context, userID string) ([]models.InteractionEvent, error)
	Count(ctx context.Context) (int, error)
}

// Matches reports whether the event satisfies every active predicate.
func (f EventFilter) Matches(ev *models.InteractionEvent) bool {
	if f.UserID != "" && ev.UserID != f.UserID {
		return false
	}
	if f.Page != "" {
		data := ev.Data()
		if data == nil || models.CanonicalID(data["page"]) != f.Page {
			return false
		}
	}
	if f.Start != nil || f.End != nil {
		t, ok := ev.Time()
		if !ok {
			// Unparseable timestamps never satisfy a date-bounded
			// query, but must not fail it either.
			return false
		}
		if f.Start != nil && t.Before(*f.Start) {
			return false
		}
		if f.End != nil && t.After(*f.End) {
			return false
		}
	}
	return true
}

// SortByTimestampDesc orders events newest first. Events whose timestamp
// does not parse sort after all parseable ones, preserving their relative
// order.
func SortByTimestampDesc(events []models.InteractionEvent) {
	sort.SliceStable(events, func(i, j int) bool {
		ti, iok := events[i].Time()
		tj, jok := events[j].Time()
		if iok != jok {
			return iok
		}
		if !iok {
			return false
		}
		return ti.After(tj)
	})
}
