// Package files stores uploaded audio and generated documents.
//
// A BlobStore abstracts the backend: local directories for single-node
// deployments, S3 (or MinIO) when files must survive the instance.
// Keys are slash-separated paths such as "uploads/audio-1700000000-1.wav";
// the same key is what gets persisted on the interrogation record.
package files
