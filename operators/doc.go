// Package operators provides stock operators for plan files.
//
// # Operators
//
//   - **Generator**: emits a sequence of int64 values. Required output.
//   - **Passthrough**: forwards tuples unchanged. Required input and output.
//   - **Union**: merges two streams. The first input is required, the second
//     optional.
//   - **Console**: prints tuples. Required input, no outputs.
//   - **Filter**: forwards tuples whose text form matches a pattern; the rest
//     go to the optional reject output.
//
// Generic operators are registered for string, int64 and float64 payloads.
// The string variant uses the bare name ("console"), the others carry the
// payload as suffix ("console.int64").
package operators
