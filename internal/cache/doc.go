// Package cache provides a byte-bounded LRU cache for immutable blobs.
//
// Values are shared, not copied; callers must treat them as read-only.
package cache
