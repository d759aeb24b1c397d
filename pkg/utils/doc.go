// Package utils provides shared helpers used across the engram library.
//
// This package contains:
//   - Vector math for similarity scoring and top-K selection (vector.go)
//   - Bounded concurrent execution helpers (concurrent.go)
//   - Panic recovery for background goroutines (recovery.go)
//   - Text chunking for long episode content (chunk.go)
//   - Identifier and query-string utilities (helpers.go)
//
// Everything here is dependency-light on purpose; higher level packages
// (driver, search, ingestion) compose these helpers rather than
// re-implementing them.
package utils
