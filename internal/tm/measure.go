package tm

import "strings"

// MeasureText is the compact text encoding of the Normalized Measurement
// program, the repository's worked example. It erases the input up to the
// first blank, counts the '1' symbols encountered, and writes the count
// in binary followed by the marker "nm" at the front of the tape.
//
// Instruction walkthrough:
//
//	0?*L1  whatever the input, go left to write the initial "0nm"
//	1 mL2  write the marker...
//	2 nL3  ...
//	3 0R4  ...and the zero counter, then turn around
//	4m*R5  scan right: found the marker, start consuming input
//	4?*R4  scan right: still looking
//	51_L6  a '1': erase it and go increment the counter
//	5 *NH  a blank: measurement done, halt
//	5?_R5  anything else: erase and keep consuming
//	6n*L7  walk left to the counter...
//	6?*L6  ...
//	710L7  binary increment: carry
//	7?1R4  binary increment: done, back to consuming
const MeasureText = "0?*L1" +
	"1 mL2" +
	"2 nL3" +
	"3 0R4" +
	"4m*R5" +
	"4?*R4" +
	"51_L6" +
	"5 *NH" +
	"5?_R5" +
	"6n*L7" +
	"6?*L6" +
	"710L7" +
	"7?1R4"

// Reading extracts the measurement from a final tape: the compact tape
// cut at the first erased cell. Programs following the erase-consumed-
// input convention leave their answer in front of the erased run.
func Reading(t *Tape) string {
	s := t.Compact()
	if i := strings.IndexRune(s, rune(Erased)); i >= 0 {
		s = s[:i]
	}
	return s
}
