// Package domain holds the types shared by every layer of vault-rag:
// documents parsed from the vault, the chunks cut from them, the vector
// records persisted per chunk, and the ranked matches returned for a query.
// It also defines the sentinel errors adapters wrap.
//
// Domain imports only the standard library.
package domain
