// Package card holds the content model shared by the cache, the router and
// the remote client: the Text/Binary content variant, its text-safe stored
// form, and the metadata records reported by the content service.
package card
