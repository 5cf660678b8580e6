package vault

import "context"

type Repository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	// SetMany upserts every entry or none of them.
	SetMany(ctx context.Context, items map[string][]byte) error
	DeleteMany(ctx context.Context, keys ...string) error
	List(ctx context.Context) (map[string][]byte, error)
	Clear(ctx context.Context) error
}
