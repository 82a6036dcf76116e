// Package tm defines the core Turing-machine model: symbols, states,
// instructions, programs, and the two-sided infinite tape.
//
// The types here are deliberately plain data. Execution lives in
// internal/machine, parsing and validation in internal/compiler.
//
// Identity is content-addressed: ProgramHash and RunID produce stable
// SHA-256 identifiers so that recorded runs can be verified byte-for-byte
// on replay.
package tm
