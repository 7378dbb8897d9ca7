// Package decision implements the lot notification pipeline: fan-out of a
// lot photo to recipients with an inline buy/no-buy prompt, idempotent
// collection of button-press votes, and consolidation of the votes into a
// single status per decision id.
package decision

import "time"

// Action is a recipient's answer to the buy prompt.
type Action string

const (
	ActionYes Action = "yes"
	ActionNo  Action = "no"
)

// Vote is one recipient's recorded answer. A voter gets at most one Vote
// per decision; the first one wins.
type Vote struct {
	VoterID     int64
	Action      Action
	RespondedAt time.Time
}

// Record is the aggregate state of one outstanding decision.
type Record struct {
	ID        string
	CreatedAt time.Time
	Votes     []Vote // arrival order
}

// Status is the consolidated outcome of a decision.
type Status string

const (
	StatusPending Status = "pending"
	StatusYes     Status = "yes"
	StatusNo      Status = "no"
)

// Consolidate reduces a vote set to one status. Any yes wins outright,
// regardless of count or order; otherwise any no; otherwise pending.
func Consolidate(votes []Vote) Status {
	hasNo := false
	for _, v := range votes {
		switch v.Action {
		case ActionYes:
			return StatusYes
		case ActionNo:
			hasNo = true
		}
	}
	if hasNo {
		return StatusNo
	}
	return StatusPending
}
