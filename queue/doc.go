// Package queue provides the bounded FIFO channel that connects pipeline
// stages. Each Bus has exactly one writer and one reader; a job id and its
// payload travel together as a single Message, and the distinguished Final
// message marks the end of the stream.
package queue
