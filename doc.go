// Package rabitq compresses float32 vectors into compact b-bit codes and
// estimates inner products and distances directly on those codes.
//
// Encoding a vector runs three stages:
//
//  1. A random orthogonal rotation (package rotator) spreads energy evenly
//     over the coordinates and pads the vector to a multiple of 64.
//  2. A scalar quantizer (package quantization) snaps every coordinate onto a
//     uniform grid of 2^b levels, keeping the grid's step and offset.
//  3. A bit packer (package packing) stores the codes in the block layout the
//     inner-product kernels (package distance) read.
//
// # Quick Start
//
//	codec, err := rabitq.New(768, rabitq.WithBits(4), rabitq.WithSeed(42))
//	if err != nil {
//		return err
//	}
//	ev, err := codec.Encode(vec)
//	q, err := codec.PrepareQuery(query)
//	d := codec.Distance(q, ev)
//
// # Persistence
//
// A codec serializes its parameters and rotation with MarshalBinary, WriteTo
// or SaveCodec; the rotation payload can be compressed with LZ4 or zstd.
// Blobs carry a CRC32C trailer and are validated completely before use.
//
//	store := blobstore.NewLocalStore("./codecs")
//	err := rabitq.SaveCodec(ctx, store, "items.rbq", codec)
//	codec, err := rabitq.LoadCodec(ctx, store, "items.rbq")
//
// Stores for S3 and MinIO live in blobstore/s3 and blobstore/minio.
//
// # Concurrency
//
// A Codec is safe for concurrent use. EncodeBatch fans out over a bounded
// errgroup; see WithConcurrency.
package rabitq
