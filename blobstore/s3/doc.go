// Package s3 provides an S3 implementation of the blobstore.BlobStore interface.
//
// # Usage
//
//	cfg, _ := config.LoadDefaultConfig(ctx)
//	store := s3.NewStore(awss3.NewFromConfig(cfg), "research-data", "symmetries/")
//	table, warnings, err := symmetry.LoadAll(ctx, store, "")
//
// # Features
//
//   - Range reads for partial fetches
//   - Whole-object reads through the s3 manager downloader (parallel parts)
//   - Automatic pagination for listing
//   - Configurable prefix for shared buckets
package s3
