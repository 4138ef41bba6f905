// Package types defines the shared wire types of the backend: the
// payloads pushed to the UI over the event stream and the request bodies
// accepted by the command surface.
package types
