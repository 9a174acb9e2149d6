/*
Package backend talks to the word frequency analysis service.

The main fixture of the backend package is the Backend interface. Backend
provides the two operations the uploader needs: sending one chunk of a file
with its metadata, and sending the whole file to get the final analysis back.
The default implementation, HTTPBackend, speaks the service's multipart HTTP
contract:

	POST /upload-chunk   fields: file (chunk bytes), k, offset
	POST /upload         fields: file (whole file), k
	                     response: {"words": [...], "frequencies": [...]}

Both operations report upload progress of their own request as a fraction in
[0, 1] through a ProgressFunc. Any failure, including a non-2xx status, comes
back as a *TransportError. Response bodies of chunk uploads are not interpreted.

Mock implementations of Backend for tests live in the mock subpackage.
*/
package backend
