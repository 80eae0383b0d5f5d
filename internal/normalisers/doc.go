// Package normalisers dispatches raw files to the normaliser registered for
// their MIME type. Each normaliser knows how to turn one format into a
// domain.Document.
//
// Normalisers are registered with the Registry at startup.
package normalisers
