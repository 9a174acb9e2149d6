/*
Package wordfreq uploads text files to a word frequency analysis service and
collects the K most frequent words it reports.

Large files are not sent in one request. The Uploader splits a file into
fixed-size chunks (1 MiB unless configured otherwise) with the source
package and sends them one after another through a backend.Backend, each
chunk tagged with K and its byte offset. No chunk is sent before the previous
one has been acknowledged. Once every chunk is acknowledged the whole file is
sent once more with K, and the service's answer becomes the results table.

An upload moves through three phases:

	Idle -> Uploading -> Finalizing -> Idle

Any failure ends the upload and returns the Uploader to Idle. Nothing is
retried and nothing is resumed. Only one upload runs at a time; Submit returns
ErrJobActive while one is in progress and otherwise leaves it alone.

Progress is exposed as a single current Snapshot that can be polled with
Uploader.Snapshot or followed with Uploader.Subscribe.
*/
package wordfreq
