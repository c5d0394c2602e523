// Package cropper hands extracted frames to the external Python cropping
// tool. It resolves a usable interpreter, verifies the tool's package
// dependencies, and drives the cropping process with the parent's stdio
// attached so progress output reaches the operator directly.
package cropper
