package lock

import (
	"context"
	"errors"
	"sort"
)

// ErrLockTimeout is returned when a key could not be acquired before the
// context ended.
var ErrLockTimeout = errors.New("lock: timed out acquiring key")

// Locker serializes work per key. The returned release func is safe to call once.
type Locker interface {
	Lock(ctx context.Context, key string) (release func(), err error)
}

// UserKey is the key guarding one user's financial state.
func UserKey(userID string) string {
	return "user:" + userID
}

// LockMany acquires keys in sorted order so two callers locking overlapping
// sets cannot deadlock. Duplicates are locked once.
func LockMany(ctx context.Context, locker Locker, keys ...string) (func(), error) {
	unique := make([]string, 0, len(keys))
	seen := make(map[string]struct{}, len(keys))
	for _, key := range keys {
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		unique = append(unique, key)
	}
	sort.Strings(unique)

	releases := make([]func(), 0, len(unique))
	releaseAll := func() {
		for i := len(releases) - 1; i >= 0; i-- {
			releases[i]()
		}
	}
	for _, key := range unique {
		release, err := locker.Lock(ctx, key)
		if err != nil {
			releaseAll()
			return nil, err
		}
		releases = append(releases, release)
	}
	return releaseAll, nil
}
