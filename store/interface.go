package store

import (
	"context"

	models "cafe-cart/model"
)

// Store is durable key-value string storage. Values are always overwritten in full.
type Store interface {
	// Get returns the value under key; ok is false when the key was never written.
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error

	Close() error
}

// Archive keeps receipts of orders that were handed off.
type Archive interface {
	ArchiveOrder(ctx context.Context, rec models.OrderRecord) error
}
