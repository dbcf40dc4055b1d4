// Package grid models the LED matrix of a grid controller.
//
// A Grid is a fixed-size rectangle of integer brightness levels, one per
// button LED. Dimensions are set at construction and never change; the
// common physical shape (8 rows by 16 columns) is the default.
//
// # Levels
//
// Levels are conventionally in the range [0, 15], matching the 16
// intensity steps of varibright hardware. The range is a convention, not
// an enforced invariant: callers may write values outside it and read
// them back unchanged. Monobright devices treat any non-zero level as on.
//
// # Concurrency
//
// A Grid performs no internal locking. It assumes a single writer per
// instance; callers that share a Grid across goroutines must serialize
// access themselves.
package grid
