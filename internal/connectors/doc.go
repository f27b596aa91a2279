// Package connectors wires the platform clients for the Source and Target
// video platforms. Each platform lives in its own sub-package:
//
//   - request: the shared resilient HTTP client (rate limiting, retries)
//   - source: the Source catalog (paginated folder and video listings)
//   - target: the Target library (folders, title search, URL ingestion)
//
// Factory builds a fresh catalog and library for every mirror run.
package connectors
