package store

import (
	"context"
	"log/slog"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/pb"
)

// Watch subscribes to every write or delete under the given key prefix and
// reports each batch as a single tick. Ticks are coalesced: while a consumer
// is behind, further changes collapse into the one pending tick. Consumers
// reload the full result set on a tick rather than inspecting the changed
// keys, so a collapsed tick loses nothing.
//
// The returned channel closes when ctx is cancelled.
func Watch(ctx context.Context, db *badger.DB, log *slog.Logger, prefix []byte) <-chan struct{} {
	ticks := make(chan struct{}, 1)
	go func() {
		defer close(ticks)
		err := db.Subscribe(ctx, func(kv *badger.KVList) error {
			select {
			case ticks <- struct{}{}:
			default:
			}
			return nil
		}, []pb.Match{{Prefix: prefix}})
		if err != nil && ctx.Err() == nil {
			log.Error("change subscription stopped", "prefix", string(prefix), "error", err)
		}
	}()
	return ticks
}
