// Package fingerprint computes content digests used for change detection.
//
// The indexing pipeline fingerprints every discovered document and compares
// the digest against the stored file_hash: an equal digest short-circuits
// re-analysis entirely (no re-parse, no write) unless a forced reindex was
// requested.
package fingerprint
