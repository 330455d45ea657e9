// Package minio provides a BlobStore implementation using the MinIO client.
//
// MinIO is an S3-compatible object store. This package uses the MinIO Go
// client, so symmetry and volume tables can be read from any S3-compatible
// system (Ceph, SeaweedFS, Garage) without the AWS SDK.
//
// # Basic Usage
//
//	client, err := minio.New("localhost:9000", &minio.Options{
//	    Creds:  credentials.NewStaticV4("minioadmin", "minioadmin", ""),
//	    Secure: false,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	store := minioblob.NewStore(client, "census", "symmetries/")
//	table, warnings, err := symmetry.LoadAll(ctx, store, "")
package minio
