/*
Package source splits a file into fixed-size chunks for upload.

A Source wraps anything that implements io.ReaderAt together with its total size
and a chunk size. Chunks are produced on demand from a byte offset supplied by
the caller, so the same Source can be walked again from offset 0 for a new upload
without any reset. A Source never keeps a cursor of its own.

The final chunk covers whatever remains of the data and may be shorter than the
chunk size. An empty source has no chunks at all.
*/
package source
