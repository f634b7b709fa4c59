package corpus

import (
	"context"
	"fmt"
	"log"
	"sync/atomic"

	"golang.org/x/sync/singleflight"

	"github.com/Helchan/Marsunso/internal/errors"
	"github.com/Helchan/Marsunso/internal/pinyin"
)

// Store owns the current corpus snapshot. Readers get a consistent snapshot
// via an atomic pointer; rebuilds after invalidation are collapsed with
// singleflight so a burst of queries triggers exactly one reload.
type Store struct {
	loader Loader
	tr     *pinyin.Transliterator
	opts   FlattenOptions

	current atomic.Pointer[Snapshot]
	stale   atomic.Bool
	group   singleflight.Group
}

// NewStore creates a store; no snapshot is built until the first Snapshot or
// Refresh call.
func NewStore(loader Loader, tr *pinyin.Transliterator, opts FlattenOptions) *Store {
	s := &Store{loader: loader, tr: tr, opts: opts}
	s.stale.Store(true)
	return s
}

// Snapshot returns the current snapshot, rebuilding first when the source
// has been invalidated. A rebuild failure falls back to the previous
// snapshot when one exists; with no snapshot at all the corpus is
// unavailable and that error is surfaced.
func (s *Store) Snapshot(ctx context.Context) (*Snapshot, error) {
	if snap := s.current.Load(); snap != nil && !s.stale.Load() {
		return snap, nil
	}

	v, err, _ := s.group.Do("rebuild", func() (any, error) {
		// A concurrent caller may have finished the rebuild already.
		if snap := s.current.Load(); snap != nil && !s.stale.Load() {
			return snap, nil
		}
		return s.rebuild(ctx)
	})
	if err != nil {
		if snap := s.current.Load(); snap != nil {
			log.Printf("corpus rebuild failed, serving previous snapshot: %v", err)
			return snap, nil
		}
		return nil, errors.NewCorpusError("rebuild", fmt.Errorf("%w: %v", errors.ErrCorpusUnavailable, err))
	}
	return v.(*Snapshot), nil
}

// Refresh forces a rebuild regardless of staleness.
func (s *Store) Refresh(ctx context.Context) error {
	s.Invalidate()
	_, err := s.Snapshot(ctx)
	return err
}

// Invalidate marks the snapshot stale; the next Snapshot call rebuilds.
func (s *Store) Invalidate() {
	s.stale.Store(true)
}

// Version is the content version of the current snapshot, zero when none has
// been built yet.
func (s *Store) Version() uint64 {
	if snap := s.current.Load(); snap != nil {
		return snap.Version()
	}
	return 0
}

func (s *Store) rebuild(ctx context.Context) (*Snapshot, error) {
	roots, version, err := s.loader.Load(ctx)
	if err != nil {
		return nil, err
	}

	snap := NewSnapshot(Flatten(roots, s.tr, s.opts), version)
	s.current.Store(snap)
	s.stale.Store(false)
	return snap, nil
}
