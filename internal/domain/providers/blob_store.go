package providers

import "context"

// BlobStore stores binary photo data and hands back a stable reference
// string that callers persist alongside the owning record.
type BlobStore interface {
	// Put stores data under the given name and returns the reference
	Put(ctx context.Context, name string, data []byte) (string, error)

	// Remove deletes a stored blob; missing blobs are not an error
	Remove(ctx context.Context, ref string) error
}
