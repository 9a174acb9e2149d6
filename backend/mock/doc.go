/*
Package mock provides fake analysis services for testing

The types defined here all implement the
github.com/hamedshahidi/word-frequency/backend.Backend interface and are
therefore useful for testing any code that uploads through a Backend. It
includes a backend that accepts everything and answers with nothing, a backend
that records every request and can be told to fail at a given point, and a
backend that always fails.
*/
package mock
