// Package cache provides result caching implementations.
//
// Caches hold finished job results for a limited time so that repeating an
// identical request can skip the backend. They are not a history: entries
// expire and cannot be listed.
package cache

import "github.com/ZaguanLabs/polyglot"

// ResultCache is an alias to the main package interface.
type ResultCache = polyglot.ResultCache

// DefaultTTL is the lifetime of a cached result in seconds.
const DefaultTTL = 600
