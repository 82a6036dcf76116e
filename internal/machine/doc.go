// Package machine executes Turing-machine programs against a tape.
//
// Execution is deterministic: instructions are matched first-match-wins
// in declaration order, every step is stamped with a monotonic logical
// sequence number, and the same (program, input) pair always produces the
// same final tape, trace, and step count. A max-steps quota guarantees
// that a run always terminates with a verdict, even for programs that do
// not halt.
package machine
