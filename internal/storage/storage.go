package storage

import (
	"context"

	"antibtc/internal/model"
)

// Sink persists engine events and pool snapshots.
type Sink interface {
	PutEvents(ctx context.Context, events []model.EventRecord) error
	PutSnapshots(ctx context.Context, snapshots []model.PoolSnapshot) error
}
