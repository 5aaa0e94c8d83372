// Package component defines the lifecycle contract shared by the
// annotation service's long-lived parts: the annotator (which owns the
// pipeline engine) and the HTTP server.
//
// Components are started in registration order and stopped in reverse,
// so the server stops accepting requests before the pipeline is shut down.
package component
