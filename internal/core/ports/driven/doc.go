// Package driven declares what the core services need from infrastructure:
// reading the vault, parsing and chunking notes, embedding text, and
// storing vectors and manifests. Adapters implement these interfaces.
//
// # Interfaces
//
//   - Connector: Walks a source directory and yields raw files
//   - ConnectorFactory: Creates connectors for a source root
//   - Normaliser: Transforms raw files into documents
//   - NormaliserRegistry: Selects appropriate normaliser
//   - PipelineBuilder: Builds the chunking post-processor pipeline
//   - EmbeddingService: Generates vector embeddings
//   - VectorIndex: Vector collections with exact nearest-neighbour search
//   - ManifestStore: Index manifest persistence
//   - StorageLayout: Presence checks for the persisted layout
//   - MetricsRecorder: Ingestion and retrieval counters
//
// This package imports only the domain package.
package driven
