// Package compiler turns program sources into tm.Program values.
//
// Two source forms are supported: the compact text encoding (five runes
// per instruction, as in "0?*L1"), and CUE definitions compiled through
// the CUE SDK. Both forms produce the same canonical program, so the
// same source always yields the same ProgramHash.
//
// Validate performs the structural checks shared by every entry point:
// non-empty program, halt state never a source, shadowing diagnostics.
package compiler
