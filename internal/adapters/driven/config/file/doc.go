// Package file keeps index state on the local filesystem: the storage
// directory layout and the TOML manifest describing each ingested
// collection.
package file
