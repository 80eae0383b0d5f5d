// Package services holds the ingestion and retrieval use cases. Services
// depend only on driven ports, so storage, embedding and parsing backends
// are chosen by the caller.
package services
