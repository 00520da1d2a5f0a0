// Package blobstore implements the Blob Store: storage of the original
// uploaded bytes under keys derived from the document ID and content hash.
// Each Document has its own key; the same bytes stored for two different
// Documents occupy two objects.
package blobstore

import "context"

// Store persists and retrieves raw document bytes. S3 backs production;
// Memory backs tests and local/dev runs without cloud credentials.
type Store interface {
	// Put writes data under key and returns the URI the Document record
	// should carry as BlobURI.
	Put(ctx context.Context, key string, data []byte, contentType string) (uri string, err error)
	Get(ctx context.Context, uri string) ([]byte, error)
}
