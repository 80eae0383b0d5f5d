// Package api exposes the retrieval service over HTTP using echo.
//
// Routes:
//
//	GET  /          API description
//	GET  /health    readiness and storage layout
//	POST /retrieve  similarity search, body {"query": "...", "top_k": 5}
//	GET  /metrics   Prometheus exposition
//
// Errors are returned as {"detail": "..."}: 400 for a blank query, 422 for an
// undecodable body or out-of-range top_k, 503 while the index is not loaded
// and 500 for embedding or index failures.
package api
