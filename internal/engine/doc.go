// Package engine defines the transformation core for lenticular documents.
//
// A lenticular document is one logical document kept in two surface
// syntaxes at once: a prose-with-markup form (for example Org) and a
// source-code form (for example Emacs Lisp or Clojure). The engine
// rewrites the text of one form into the other by toggling line-prefix
// comments across delimited code regions, optionally layering extra
// line-anchored rewrite rules on top.
//
// The engine is built from several sub-packages:
//
//   - region: partitions a buffer into alternating prose and code regions
//   - block: the two mutually inverse comment-toggling strategies
//   - overlay: line-anchored rules composed onto a base strategy
//   - buffer: named mutable text containers with wholesale replacement
//
// Everything in the transformation path is value-in/value-out: a Strategy
// is a pure function from text to text, holds no state between
// invocations, and never mutates its input. Callers that need mutable
// containers use the buffer sub-package and replace content wholesale,
// so a failed transform never leaves a partially rewritten buffer.
package engine
