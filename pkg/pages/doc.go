// Package pages provides a hierarchical page layer with publication
// filtering and a request-scoped page identity cache on top of a pluggable
// page store.
//
// Sessions
//
// Every unit of work (an HTTP request, a CLI command, a job) owns a Session
// carried in its context.Context. The session holds a PublicationManager,
// a stack of filtering modes, and a PageCache, an identity map keyed by id
// and permalink. Sessions are never shared between goroutines; starting a
// new session is how the cache is reset.
//
// Managers
//
// PublishedManager and PageBaseManager build Query values: the first adds
// the publication predicate while the session's filtering mode is active,
// the second scopes to the current site. PageManager adds cache-aware
// lookups (GetByID, GetByPermalink, Resolve, ResolveURL, Homepage) and the
// page lifecycle (Save, Delete) that keeps the cache consistent.
//
// Stores for memory, PostgreSQL and SQLite live under repo/.
package pages
