package repository

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/okian/bracketpool/internal/domain/model"
)

func statsOf(trials int, pcts map[string]float64) *model.AggregateStats {
	s := &model.AggregateStats{Trials: trials, Seed: 42, Participants: map[string]*model.ParticipantStats{}}
	for name, pct := range pcts {
		s.Participants[name] = &model.ParticipantStats{
			Name:          name,
			FirstPlace:    int(pct * float64(trials)),
			FirstPlacePct: pct,
		}
	}
	return s
}

func TestMemoryStore_BasicOperations(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	if count := store.Count(ctx); count != 0 {
		t.Errorf("expected count 0, got %d", count)
	}

	run := Run{
		ID:        "run-1",
		CreatedAt: time.Unix(1616000000, 0),
		Stats:     statsOf(100, map[string]float64{"alice": 0.25, "bob": 0.6, "carol": 0.15}),
	}
	if err := store.Save(ctx, run); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count := store.Count(ctx); count != 1 {
		t.Errorf("expected count 1, got %d", count)
	}

	got, err := store.Get(ctx, "run-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ID != "run-1" || got.Stats.Trials != 100 {
		t.Errorf("unexpected run %+v", got)
	}

	list, err := store.List(ctx, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(list) != 1 || list[0].Leader != "bob" || list[0].LeaderPct != 0.6 || list[0].Seed != 42 {
		t.Errorf("unexpected summary %+v", list)
	}

	entries, err := store.Standings(ctx, "run-1", 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entries) != 2 || entries[0].Name != "bob" || entries[0].Rank != 1 || entries[1].Name != "alice" || entries[1].Rank != 2 {
		t.Errorf("unexpected standings %+v", entries)
	}
}

func TestMemoryStore_Errors(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	if _, err := store.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if _, err := store.Standings(ctx, "missing", 5); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if _, err := store.List(ctx, 0); !errors.Is(err, ErrInvalidLimit) {
		t.Errorf("expected ErrInvalidLimit, got %v", err)
	}
	if _, err := store.Standings(ctx, "missing", 0); !errors.Is(err, ErrInvalidLimit) {
		t.Errorf("expected ErrInvalidLimit, got %v", err)
	}
	if err := store.Save(ctx, Run{}); !errors.Is(err, ErrEmptyID) {
		t.Errorf("expected ErrEmptyID, got %v", err)
	}

	if err := store.Save(ctx, Run{ID: "dup"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := store.Save(ctx, Run{ID: "dup"}); !errors.Is(err, ErrDuplicateID) {
		t.Errorf("expected ErrDuplicateID, got %v", err)
	}
}

func TestMemoryStore_TiedStandings(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	run := Run{ID: "tied", Stats: statsOf(10, map[string]float64{"zed": 0.5, "amy": 0.5, "kim": 0})}
	if err := store.Save(ctx, run); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	entries, err := store.Standings(ctx, "tied", 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []struct {
		name string
		rank int
	}{{"amy", 1}, {"zed", 1}, {"kim", 2}}
	for i, w := range want {
		if entries[i].Name != w.name || entries[i].Rank != w.rank {
			t.Errorf("entry %d: expected %s rank %d, got %+v", i, w.name, w.rank, entries[i])
		}
	}
}

func TestMemoryStore_Eviction(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(WithMaxRuns(3))

	for i := 0; i < 5; i++ {
		if err := store.Save(ctx, Run{ID: fmt.Sprintf("run-%d", i)}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	if count := store.Count(ctx); count != 3 {
		t.Errorf("expected count 3, got %d", count)
	}
	if _, err := store.Get(ctx, "run-1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected oldest runs to be evicted, got %v", err)
	}

	list, err := store.List(ctx, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ids := []string{list[0].ID, list[1].ID, list[2].ID}
	if ids[0] != "run-4" || ids[1] != "run-3" || ids[2] != "run-2" {
		t.Errorf("expected newest first, got %v", ids)
	}
}

func TestMemoryStore_ConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(WithMaxRuns(1000))
	const writers, perWriter = 8, 25

	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(2)
		go func(id int) {
			defer wg.Done()
			for j := 0; j < perWriter; j++ {
				run := Run{ID: fmt.Sprintf("w%d-%d", id, j), Stats: statsOf(10, map[string]float64{"a": 1})}
				if err := store.Save(ctx, run); err != nil {
					t.Errorf("save: %v", err)
				}
			}
		}(w)
		go func() {
			defer wg.Done()
			for j := 0; j < perWriter; j++ {
				if _, err := store.List(ctx, 5); err != nil {
					t.Errorf("list: %v", err)
				}
			}
		}()
	}
	wg.Wait()

	if count := store.Count(ctx); count != writers*perWriter {
		t.Errorf("expected %d runs, got %d", writers*perWriter, count)
	}
}
