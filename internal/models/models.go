package models

import "time"

// Scope selects which physical tables an operation touches. It is resolved
// exactly once at the request boundary and passed through explicitly.
type Scope int

const (
	// ScopeNormal targets the regular active-stock tables.
	ScopeNormal Scope = iota
	// ScopePrivate targets the stash table only.
	ScopePrivate
)

func (s Scope) String() string {
	if s == ScopePrivate {
		return "private"
	}
	return "normal"
}

// Action is the activity log action kind.
type Action string

const (
	ActionAdd    Action = "ADD"
	ActionRemove Action = "REMOVE"
)

// Item is a row in an active-stock table or the stash table.
// Position is 1-based and excludes the header row.
type Item struct {
	Name     string `json:"name"`
	Dose     string `json:"dose"`
	Location string `json:"location"`
	Quantity int    `json:"quantity"`
	Table    string `json:"table"`
	Position int    `json:"position"`
}

// ArchivedItem is a depleted item: identity without quantity.
type ArchivedItem struct {
	Name         string `json:"name"`
	Dose         string `json:"dose"`
	LastLocation string `json:"last_location"`
	Position     int    `json:"-"`
}

// ActivityRecord is one append-only audit entry. One record is written per
// affected item, with the requested (not resulting) quantity.
type ActivityRecord struct {
	Timestamp time.Time `json:"timestamp"`
	Action    Action    `json:"action"`
	Name      string    `json:"name"`
	Dose      string    `json:"dose"`
	Location  string    `json:"location"`
	Quantity  int       `json:"quantity"`
}

// ConsumeLine is one row of a consume request. Current is the quantity as
// known by the caller at the time the form was rendered.
type ConsumeLine struct {
	Table    string `json:"table"`
	Position int    `json:"position"`
	Name     string `json:"name"`
	Dose     string `json:"dose"`
	Location string `json:"location"`
	Quantity int    `json:"quantity"`
	Current  int    `json:"current"`
}

// RowRef points at an already-located row, used by the quick-restock fast
// path from search results.
type RowRef struct {
	Table    string `json:"table"`
	Position int    `json:"position"`
	Current  int    `json:"current"`
}

// OpResult reports the outcome of one logical ledger mutation. Batches
// return one result per submitted line; a failed line keeps its
// already-applied effects (no rollback).
type OpResult struct {
	Name     string `json:"name"`
	Dose     string `json:"dose"`
	Location string `json:"location"`
	Quantity int    `json:"quantity"`
	Archived bool   `json:"archived,omitempty"`
	Restored bool   `json:"restored,omitempty"`
	Merged   bool   `json:"merged,omitempty"`
	Skipped  bool   `json:"skipped,omitempty"`
	Error    string `json:"error,omitempty"`
}
