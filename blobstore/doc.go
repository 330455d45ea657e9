// Package blobstore provides read access to the files a search consumes:
// symmetry tables and precomputed volume tables.
//
// BlobStore is the interface for reading named blobs. Implementations must be
// safe for concurrent use.
//
// # Built-in Implementations
//
//   - LocalStore: local filesystem directory
//   - MemoryStore: in-memory map, for tests and embedded tables
//   - s3.Store: Amazon S3, whole-object reads through the s3 manager downloader
//   - minio.Store: MinIO and other S3-compatible endpoints
//
// # Custom Implementations
//
//	type BlobStore interface {
//	    Open(ctx, name) (Blob, error)
//	    List(ctx, prefix) ([]string, error)
//	}
//
// Stores that can fetch a whole object faster than ranged reads implement
// Fetcher; ReadAll prefers it.
package blobstore
