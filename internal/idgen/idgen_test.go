package idgen

import (
	"sync"
	"testing"

	"github.com/google/uuid"
)

func TestSequenceIsDeterministic(t *testing.T) {
	seq := NewSequence("sub")
	if got := seq.NewID(); got != "sub-1" {
		t.Fatalf("first id: got %q", got)
	}
	if got := seq.NewID(); got != "sub-2" {
		t.Fatalf("second id: got %q", got)
	}
}

func TestSequenceConcurrentUnique(t *testing.T) {
	seq := NewSequence("x")
	var mu sync.Mutex
	seen := make(map[string]struct{})
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id := seq.NewID()
			mu.Lock()
			seen[id] = struct{}{}
			mu.Unlock()
		}()
	}
	wg.Wait()
	if len(seen) != 50 {
		t.Fatalf("expected 50 unique ids, got %d", len(seen))
	}
}

func TestUUIDGenerator(t *testing.T) {
	id := NewUUID().NewID()
	if _, err := uuid.Parse(id); err != nil {
		t.Fatalf("not a uuid: %q", id)
	}
}
