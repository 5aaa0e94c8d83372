// Package annotator is the caller-facing layer over a pipeline engine. It
// decides between single and large (chunked) jobs, decodes stage output into
// annotations, and translates engine conditions into application errors.
//
// Service is a lifecycle component: Start builds the pipeline, Stop drains
// and shuts it down.
package annotator
