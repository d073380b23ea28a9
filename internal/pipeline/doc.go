// Package pipeline provides the two concurrency primitives used by both
// stages of phetcrawl.
//
// Run is a bounded worker pool: it executes a task for every item of a
// slice with a fixed cap on simultaneous tasks, capturing each task's
// failure independently. It backs category fetches, offline-index fetches,
// metadata fetches, downloads, image optimization, and the per-document
// fan-out over embedded payloads and scripts.
//
// Pipeline runs an ordered list of Steps over one model.Document. The first
// failing step aborts the pipeline for that document only; the caller
// decides what to do with the error.
package pipeline
