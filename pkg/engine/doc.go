// Package engine resolves template paths into compiled descriptors, caches
// them per (path, locale) for a fixed TTL, activates per-call instances and
// renders them on worker goroutines.
//
// A missing template is not an error: every resolve and render entry point
// reports it through a false ok value. Failures surface as *Error, except
// type mismatches between a template and the renderer or model a caller asked
// for, which surface as *template.TypeMismatchError.
package engine
