// Package blobstore stores named, immutable byte blobs such as serialized
// codecs.
//
// BlobStore is the interface every backend implements. Implementations must
// be safe for concurrent use and must make Put atomic: a concurrent Get sees
// either the old blob or the new one, never a partial write.
//
// # Built-in Implementations
//
//   - MemoryStore: in-process map, for tests and ephemeral use
//   - LocalStore: local filesystem, atomic temp-file + rename writes
//   - CachingStore: LRU read cache in front of any other store
//   - s3.Store: Amazon S3 (blobstore/s3)
//   - minio.Store: MinIO and other S3-compatible services (blobstore/minio)
//
// Missing blobs are reported with an error that satisfies
// errors.Is(err, ErrNotFound).
package blobstore
