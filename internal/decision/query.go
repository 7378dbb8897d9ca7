package decision

import "time"

// QueryResult is the consolidated view of one decision.
type QueryResult struct {
	Status    Status
	Votes     []Vote
	CreatedAt time.Time
	Known     bool // false when the id was never registered
}

// Query reads consolidated decision statuses from a ledger.
type Query struct {
	ledger *Ledger
}

func NewQuery(ledger *Ledger) Query {
	return Query{ledger: ledger}
}

// Decision never errors: an unknown id is simply still pending.
func (q Query) Decision(id string) QueryResult {
	rec, ok := q.ledger.Get(id)
	if !ok {
		return QueryResult{Status: StatusPending, Votes: []Vote{}}
	}
	return QueryResult{
		Status:    Consolidate(rec.Votes),
		Votes:     rec.Votes,
		CreatedAt: rec.CreatedAt,
		Known:     true,
	}
}
