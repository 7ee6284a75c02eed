// Package credentials persists the client's rotating refresh credential in
// a local key/value table. The access token is never written to disk.
package credentials

import "context"

type Repository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error
}
