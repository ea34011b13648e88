package storage

import (
	"context"
	"io"
)

// FileUploader is the object store behind every media asset the API serves:
// tournament and competitor logos, news covers, highlight videos. Callers
// choose the key (the services derive it from the entity and a random ID) and
// persist it on the owning row; objects are served straight from the store's
// public base URL.
type FileUploader interface {
	// Upload writes the object under key with the given content type,
	// overwriting any previous object at that key.
	Upload(ctx context.Context, key string, contentType string, content io.Reader) error

	// Delete removes the object. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// GetPublicURL returns the browser-reachable URL for a stored key, or ""
	// for an empty key.
	GetPublicURL(key string) string
}
