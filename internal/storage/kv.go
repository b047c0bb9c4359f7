// Package storage provides the durable string-valued key-value stores the
// session layer persists into.
package storage

import "context"

// KV is a process-local, string-valued key-value store. A missing key is
// reported through the bool, not an error.
type KV interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}
