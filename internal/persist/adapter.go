package persist

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/vicoolz/palimpseste/internal/storage"
	"github.com/vicoolz/palimpseste/internal/tree"
)

// KeyFor returns the storage key the snapshot of appName lives under.
func KeyFor(appName string) string {
	return appName + "_state"
}

// Adapter binds the codec to one storage slot.
type Adapter struct {
	backend storage.Backend
	key     string
	log     zerolog.Logger
}

// NewAdapter returns an Adapter writing backend[key].
func NewAdapter(backend storage.Backend, key string) *Adapter {
	return &Adapter{
		backend: backend,
		key:     key,
		log:     log.Logger.With().Str("component", "persist").Str("key", key).Logger(),
	}
}

// Key returns the storage key.
func (a *Adapter) Key() string {
	return a.key
}

// Restore returns defaults merged with the stored snapshot. A missing or
// corrupt snapshot yields defaults unchanged.
func (a *Adapter) Restore(ctx context.Context, defaults tree.Tree) tree.Tree {
	snapshot, err := a.Read(ctx)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			a.log.Warn().Err(err).Msg("discarding unreadable snapshot")
		}
		return defaults
	}
	return tree.Merge(defaults, snapshot)
}

// Read loads and decodes the stored snapshot.
func (a *Adapter) Read(ctx context.Context) (tree.Tree, error) {
	data, err := a.backend.Load(ctx, a.key)
	if err != nil {
		return nil, err
	}
	return Decode(data)
}

// Write encodes t and stores it.
func (a *Adapter) Write(ctx context.Context, t tree.Tree) error {
	data, err := Encode(t)
	if err != nil {
		return err
	}
	if err := a.backend.Save(ctx, a.key, data); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

// Clear removes the stored snapshot.
func (a *Adapter) Clear(ctx context.Context) error {
	if err := a.backend.Clear(ctx, a.key); err != nil {
		return fmt.Errorf("clear snapshot: %w", err)
	}
	return nil
}
