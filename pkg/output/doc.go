// Package output provides CollectionWriter, an io.Writer that keeps every write
// as a separate chunk instead of concatenating eagerly. Large renders assembled
// from many small writes never build intermediate strings, and copying one
// CollectionWriter into another splices chunk runs rather than bytes.
package output
