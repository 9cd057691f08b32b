// Package s3 provides an S3 implementation of the blobstore.BlobStore interface.
//
// # Usage
//
//	store, err := s3.New(ctx, "my-bucket",
//	    s3.WithPrefix("codecs/"),
//	    s3.WithRegion("us-east-1"),
//	)
//
//	err = rabitq.SaveCodec(ctx, store, "dim768-b4.rbqc", codec)
//
// # Features
//
//   - CRC32C-validated single-request puts for small blobs
//   - Multipart uploads through the SDK upload manager for large blobs
//   - Automatic pagination for listing
//   - Configurable prefix for multi-tenant isolation
package s3
