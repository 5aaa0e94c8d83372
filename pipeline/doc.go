// Package pipeline builds a linear chain of stages connected by bounded
// queues and correlates results coming off the tail of the chain with the
// jobs that produced them.
//
// An Engine is created with Build, fed with Submit or Parse, and drained with
// Retrieve. Inputs larger than Config.MaxChar are split by ParseLargeText
// into ordered chunk jobs tracked under one composite id; ReportLargeJob
// reports their progress and hands back all chunk results once every chunk
// is done.
//
// Backpressure is explicit: Parse and ParseLargeText return ErrBusy while too
// many submitted jobs are still unclaimed.
package pipeline
