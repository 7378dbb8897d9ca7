package decision

import (
	"sync"
	"testing"
	"time"
)

func TestAppendVoteFirstWins(t *testing.T) {
	t.Parallel()
	l := NewLedger()

	if !l.AppendVote("L1", 7, ActionNo) {
		t.Fatal("first vote should be appended")
	}
	if l.AppendVote("L1", 7, ActionYes) {
		t.Fatal("second vote from the same voter should be ignored")
	}

	rec, ok := l.Get("L1")
	if !ok {
		t.Fatal("record should exist")
	}
	if len(rec.Votes) != 1 {
		t.Fatalf("votes = %d, want 1", len(rec.Votes))
	}
	if rec.Votes[0].Action != ActionNo {
		t.Fatalf("recorded action = %s, want the first vote's action", rec.Votes[0].Action)
	}
}

func TestAppendVoteCreatesUnknownRecord(t *testing.T) {
	t.Parallel()
	l := NewLedger()

	if !l.AppendVote("never-notified", 1, ActionYes) {
		t.Fatal("vote for an unknown id should create the record and append")
	}
	rec, ok := l.Get("never-notified")
	if !ok || len(rec.Votes) != 1 {
		t.Fatalf("get = (%v, %v), want record with one vote", rec, ok)
	}
	if rec.CreatedAt.IsZero() {
		t.Fatal("created_at should be set on lazy creation")
	}
}

func TestGetOrCreateKeepsCreatedAt(t *testing.T) {
	t.Parallel()
	l := NewLedger()

	first := l.GetOrCreate("L2")
	second := l.GetOrCreate("L2")
	if !first.CreatedAt.Equal(second.CreatedAt) {
		t.Fatalf("created_at changed across GetOrCreate: %v vs %v", first.CreatedAt, second.CreatedAt)
	}
}

func TestGetUnknown(t *testing.T) {
	t.Parallel()
	l := NewLedger()
	if _, ok := l.Get("nope"); ok {
		t.Fatal("unknown id should not exist")
	}
}

func TestSnapshotIsolation(t *testing.T) {
	t.Parallel()
	l := NewLedger()
	l.AppendVote("L3", 1, ActionNo)

	rec, _ := l.Get("L3")
	rec.Votes[0].Action = ActionYes
	rec.Votes = append(rec.Votes, Vote{VoterID: 99})

	again, _ := l.Get("L3")
	if len(again.Votes) != 1 || again.Votes[0].Action != ActionNo {
		t.Fatal("mutating a snapshot must not affect the ledger")
	}
}

func TestConcurrentDuplicateVotes(t *testing.T) {
	t.Parallel()
	l := NewLedger()

	const attempts = 64
	var wg sync.WaitGroup
	appended := make(chan bool, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			action := ActionYes
			if i%2 == 0 {
				action = ActionNo
			}
			appended <- l.AppendVote("L4", 42, action)
		}(i)
	}
	wg.Wait()
	close(appended)

	wins := 0
	for ok := range appended {
		if ok {
			wins++
		}
	}
	if wins != 1 {
		t.Fatalf("appended %d votes for one voter, want exactly 1", wins)
	}
	rec, _ := l.Get("L4")
	if len(rec.Votes) != 1 {
		t.Fatalf("ledger holds %d votes, want 1", len(rec.Votes))
	}
}

func TestConcurrentGetOrCreate(t *testing.T) {
	t.Parallel()
	l := NewLedger()

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			l.GetOrCreate("race")
		}()
	}
	wg.Wait()

	if l.Len() != 1 {
		t.Fatalf("ledger has %d records, want 1", l.Len())
	}
}

func TestSweepOlderThan(t *testing.T) {
	t.Parallel()
	l := NewLedger()
	now := time.Now()
	l.now = func() time.Time { return now.Add(-2 * time.Hour) }
	l.GetOrCreate("old")
	l.now = func() time.Time { return now }
	l.GetOrCreate("fresh")

	if n := l.SweepOlderThan(now.Add(-time.Hour)); n != 1 {
		t.Fatalf("swept %d, want 1", n)
	}
	if _, ok := l.Get("old"); ok {
		t.Fatal("old record should be gone")
	}
	if _, ok := l.Get("fresh"); !ok {
		t.Fatal("fresh record should remain")
	}
}
