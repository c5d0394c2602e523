// Command framegrab drives batch frame extraction: it walks a folder of
// videos, dumps still frames through VLC's scene filter or a desktop
// screenshot loop, optionally hands the frames to the Python cropping
// tool, and records per-video outcomes for crash-safe resume.
package main
