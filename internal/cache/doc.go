// Package cache provides the voice preview caches: a size-bounded LRU in
// memory and a zstd-compressed store on disk that survives restarts.
package cache
