// Package cache stores compiled template descriptors keyed by template path and
// locale. Entries carry an absolute expiration instant and read as absent once
// it has passed, whether or not they were physically purged.
package cache
