package syncer

import (
	"time"

	"github.com/maintainly/fssync/internal/store"
)

type Action string

const (
	ActionInsert    Action = "insert"
	ActionUpdate    Action = "update"
	ActionUnchanged Action = "unchanged"
	ActionSkip      Action = "skip"
)

// SkipReason explains why a record was left out of the diff.
type SkipReason string

const (
	SkipIneligible   SkipReason = "ineligible"
	SkipNoOwner      SkipReason = "no_owner"
	SkipFilteredType SkipReason = "filtered_type"
	// SkipManualRows keeps a customer gone from the SoR because rows created
	// by hand still belong to it.
	SkipManualRows SkipReason = "manual_rows"
)

// Decision is the classification of one SoR record.
type Decision struct {
	ExternalID string     `json:"external_id"`
	Action     Action     `json:"action"`
	Reason     SkipReason `json:"reason,omitempty"`
}

// StreamResult summarises one stream run.
type StreamResult struct {
	Stream   string     `json:"stream"`
	Fetched  int        `json:"fetched"`
	Eligible int        `json:"eligible"`
	Inserted int        `json:"inserted"`
	Updated  int        `json:"updated"`
	Deleted  int        `json:"deleted"`
	Skipped  int        `json:"skipped"`
	Cursor   *time.Time `json:"cursor,omitempty"`
}

// plan accumulates the change set of one stream while its SoR records are
// classified.
type plan[T any] struct {
	changes   store.ChangeSet[T]
	decisions []Decision
	seen      map[string]struct{} // protected from deletion
	done      map[string]struct{} // classified in this run, seen or not
	mark      time.Time
	fetched   int
	eligible  int
	skipped   int
}

func newPlan[T any]() *plan[T] {
	return &plan[T]{seen: make(map[string]struct{}), done: make(map[string]struct{})}
}

func (p *plan[T]) observe(updatedAt time.Time) {
	p.fetched++
	if updatedAt.After(p.mark) {
		p.mark = updatedAt
	}
}

// duplicate reports whether externalID was already classified in this run.
func (p *plan[T]) duplicate(externalID string) bool {
	_, ok := p.done[externalID]
	return ok
}

// skip records a skipped record. A seen skip protects an existing row from
// deletion; an unseen one lets it be deleted.
func (p *plan[T]) skip(externalID string, reason SkipReason, seen bool) {
	p.skipped++
	p.done[externalID] = struct{}{}
	if seen {
		p.seen[externalID] = struct{}{}
	}
	p.decisions = append(p.decisions, Decision{ExternalID: externalID, Action: ActionSkip, Reason: reason})
}

func (p *plan[T]) insert(externalID string, row T) {
	p.seen[externalID] = struct{}{}
	p.done[externalID] = struct{}{}
	p.changes.Inserts = append(p.changes.Inserts, row)
	p.decisions = append(p.decisions, Decision{ExternalID: externalID, Action: ActionInsert})
}

func (p *plan[T]) update(externalID, localID string, c changes) {
	p.seen[externalID] = struct{}{}
	p.done[externalID] = struct{}{}
	if len(c) == 0 {
		p.decisions = append(p.decisions, Decision{ExternalID: externalID, Action: ActionUnchanged})
		return
	}
	p.changes.Updates = append(p.changes.Updates, store.Patch{ID: localID, Fields: c})
	p.decisions = append(p.decisions, Decision{ExternalID: externalID, Action: ActionUpdate})
}

// finish queues every synced local row that was not seen for deletion.
func (p *plan[T]) finish(ix *Index[T]) {
	p.changes.Deletes = ix.Unseen(p.seen)
}

func (p *plan[T]) result(stream string) StreamResult {
	return StreamResult{
		Stream:   stream,
		Fetched:  p.fetched,
		Eligible: p.eligible,
		Inserted: len(p.changes.Inserts),
		Updated:  len(p.changes.Updates),
		Deleted:  len(p.changes.Deletes),
		Skipped:  p.skipped,
	}
}
