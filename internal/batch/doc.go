// Package batch is the top-level driver for a frame-extraction run. It
// discovers candidate videos, consults the resume log, and walks each
// unresolved video through capture, optional cropping, outcome resolution,
// and the durable per-video record.
//
// Videos are processed strictly sequentially. Every wait on an external
// process is a bounded polling loop; a single orchestrator instance owns
// the output directory for the duration of the run, enforced with a file
// lock.
package batch
