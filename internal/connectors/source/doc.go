// Package source implements the Source platform catalog.
//
// The Source exposes a Vimeo-style REST API: folders (projects) are listed
// from a root collection, each folder advertises connections to its videos
// and to its child items, and every listing is paginated with a
// {"data": [...], "paging": {"next": "..."}} envelope.
//
// # Architecture
//
// The catalog follows the driven port pattern defined in [driven.SourceCatalog].
// It comprises the following components:
//
//   - Lister: lazy page sequences over a listing URL
//   - Catalog: decodes pages into domain folders and videos
//
// All requests go through [request.Client], which handles rate limiting and
// transient failures.
//
// # Authentication
//
// Requests carry an OAuth 2.0 bearer token (a personal access token is
// sufficient). The token is read from settings and never refreshed.
package source
