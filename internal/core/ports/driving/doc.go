// Package driving declares the use cases the CLI, HTTP API and MCP server
// call into. The services package implements them.
package driving
