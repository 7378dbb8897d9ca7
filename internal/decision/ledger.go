package decision

import (
	"sync"
	"time"
)

// Ledger is the in-memory decision store. It is the only shared mutable
// state of the pipeline; all reads return snapshots, the internal map is
// never handed out.
//
// Records are created lazily (on notify or on the first vote, whichever
// comes first) and are never removed unless a sweep is configured.
type Ledger struct {
	mu   sync.Mutex
	recs map[string]*Record
	now  func() time.Time
}

func NewLedger() *Ledger {
	return &Ledger{recs: map[string]*Record{}, now: time.Now}
}

func (l *Ledger) getOrCreateLocked(id string) *Record {
	rec, ok := l.recs[id]
	if !ok {
		rec = &Record{ID: id, CreatedAt: l.now()}
		l.recs[id] = rec
	}
	return rec
}

// GetOrCreate registers id if unseen and returns a snapshot of its record.
// Concurrent callers racing on the same unseen id observe exactly one
// creation.
func (l *Ledger) GetOrCreate(id string) Record {
	l.mu.Lock()
	defer l.mu.Unlock()
	return snapshot(l.getOrCreateLocked(id))
}

// AppendVote records a vote, creating the record if the id was never
// registered (votes may arrive for ids this process never dispatched).
// It reports whether a new vote was appended: a voter's second vote is
// silently ignored, whatever its action. The duplicate check and the
// append happen under one critical section.
func (l *Ledger) AppendVote(id string, voterID int64, action Action) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	rec := l.getOrCreateLocked(id)
	for _, v := range rec.Votes {
		if v.VoterID == voterID {
			return false
		}
	}
	rec.Votes = append(rec.Votes, Vote{VoterID: voterID, Action: action, RespondedAt: l.now()})
	return true
}

// Get returns a snapshot of the record for id, if it was ever registered.
func (l *Ledger) Get(id string) (Record, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	rec, ok := l.recs[id]
	if !ok {
		return Record{}, false
	}
	return snapshot(rec), true
}

// Len reports the number of registered decisions.
func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.recs)
}

// SweepOlderThan drops records created before cutoff and reports how many
// were removed. Only the maintenance job calls this, and only when a TTL
// is configured; the default is to retain everything.
func (l *Ledger) SweepOlderThan(cutoff time.Time) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for id, rec := range l.recs {
		if rec.CreatedAt.Before(cutoff) {
			delete(l.recs, id)
			n++
		}
	}
	return n
}

func snapshot(rec *Record) Record {
	cp := *rec
	cp.Votes = append([]Vote(nil), rec.Votes...)
	return cp
}
