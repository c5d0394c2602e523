// Package services defines shared utilities consumed by the batch
// orchestrator and the external-tool integrations.
//
// Key responsibilities:
//   - Context helpers that stamp run IDs, video paths, and stage names for
//     logging and tracing.
//   - Structured error markers plus the Wrap helper that keep failure
//     classification consistent (setup errors abort the batch, per-video
//     errors are recorded and skipped over).
//
// Use these helpers when wiring new stage logic so operational behaviour
// (error handling, observability, retries) stays uniform across the pipeline.
package services
