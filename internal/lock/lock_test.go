package lock

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestKeyedMutexSerializesSameKey(t *testing.T) {
	locker := NewKeyedMutex()
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		inside  int
		maxSeen int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release, err := locker.Lock(context.Background(), "user:1")
			if err != nil {
				t.Errorf("lock: %v", err)
				return
			}
			mu.Lock()
			inside++
			if inside > maxSeen {
				maxSeen = inside
			}
			mu.Unlock()
			time.Sleep(time.Millisecond)
			mu.Lock()
			inside--
			mu.Unlock()
			release()
		}()
	}
	wg.Wait()
	if maxSeen != 1 {
		t.Fatalf("max concurrent holders = %d, want 1", maxSeen)
	}
	if locker.size() != 0 {
		t.Errorf("slots leaked: %d", locker.size())
	}
}

func TestKeyedMutexDistinctKeysIndependent(t *testing.T) {
	locker := NewKeyedMutex()
	releaseA, err := locker.Lock(context.Background(), "a")
	if err != nil {
		t.Fatalf("lock a: %v", err)
	}
	defer releaseA()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	releaseB, err := locker.Lock(ctx, "b")
	if err != nil {
		t.Fatalf("lock b should not wait on a: %v", err)
	}
	releaseB()
}

func TestKeyedMutexHonorsContext(t *testing.T) {
	locker := NewKeyedMutex()
	release, _ := locker.Lock(context.Background(), "k")

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := locker.Lock(ctx, "k"); !errors.Is(err, ErrLockTimeout) {
		t.Fatalf("expected ErrLockTimeout, got %v", err)
	}

	release()
	release()
	again, err := locker.Lock(context.Background(), "k")
	if err != nil {
		t.Fatalf("relock: %v", err)
	}
	again()
}

func TestLockManyDedupesAndReleases(t *testing.T) {
	locker := NewKeyedMutex()
	release, err := LockMany(context.Background(), locker, "b", "a", "b")
	if err != nil {
		t.Fatalf("lock many: %v", err)
	}
	if locker.size() != 2 {
		t.Errorf("live keys = %d, want 2", locker.size())
	}
	release()
	if locker.size() != 0 {
		t.Errorf("live keys after release = %d", locker.size())
	}
}

func TestLockManyReleasesOnFailure(t *testing.T) {
	locker := NewKeyedMutex()
	hold, _ := locker.Lock(context.Background(), "b")
	defer hold()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := LockMany(ctx, locker, "a", "b"); !errors.Is(err, ErrLockTimeout) {
		t.Fatalf("expected ErrLockTimeout, got %v", err)
	}
	if _, err := locker.Lock(context.Background(), "a"); err != nil {
		t.Fatalf("a should have been released: %v", err)
	}
}
