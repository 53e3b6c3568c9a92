// Package client fetches machine graphs from a backend.
//
// A backend serves three JSON documents:
//
//	GET /graph-data          {"<machine>": {"nodes": [...], "edges": [...]}, ...}
//	GET /graph-data/<name>   {"nodes": [...], "edges": [...]}
//	GET /machines            [{"id", "type", "nodes", "edges"}, ...]
//
// [Client] maps HTTP failures onto coded errors: 404 becomes
// MACHINE_NOT_FOUND (or NOT_FOUND for the collection endpoints) wrapping
// [ErrNotFound]; transport failures and every other status become
// NETWORK_ERROR wrapping [ErrNetwork]. Transport failures and 5xx responses
// are retryable, but a client makes a single attempt unless [WithRetry] is
// given.
//
// Responses can be cached through any [cache.Cache]; keys are scoped by
// backend URL.
package client
