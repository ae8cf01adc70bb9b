// Package link describes the pairing between a document's two forms.
//
// A Configuration (the "link") names the two sides, carries the comment
// prefix and region delimiter patterns, and selects a direction: either
// the owning side is the documentation form and cloning comments prose,
// or it is the source form and cloning uncomments it. Configurations
// are plain values constructed once per pairing, validated eagerly, and
// passed explicitly into every call; there is no process-wide registry
// of the "current" link inside the engine.
//
// Clone is the forward transformation: a pure function of the current
// text and the configuration. Invert returns the counterpart
// configuration with the buffer roles swapped and the direction
// flipped, which is how callers discover the transformation for edits
// arriving on the other side.
package link
