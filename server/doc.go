// Package server is the HTTP surface of annotpipe: a Gin engine served
// with h2c, wrapped in request id, recovery, CORS, body limit, tracing and
// request logging middleware.
//
// Routes (see endpoint):
//
//	POST /v1/annotate      annotate text, or submit a large job
//	GET  /v1/jobs/:id      large job progress or merged result
//	GET  /health           component health
//	GET  /health/live      liveness
//	GET  /health/ready     readiness
//	GET  /info             service and pipeline information
//	GET  /metrics          runtime memory and goroutines
package server
