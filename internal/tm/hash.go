package tm

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"

	"golang.org/x/text/unicode/norm"
)

// Domain prefixes for content-addressed identity. The version suffix
// enables future algorithm migration without colliding with old IDs.
const (
	DomainProgram = "tmach/program/v1"
	DomainRun     = "tmach/run/v1"
)

// hashWithDomain computes SHA-256 with domain separation.
// Format: SHA256(domain + 0x00 + field + 0x00 + field ...).
// The null separators prevent field boundary ambiguity.
func hashWithDomain(domain string, fields ...string) string {
	h := sha256.New()
	h.Write([]byte(domain))
	for _, f := range fields {
		h.Write([]byte{0x00})
		h.Write([]byte(f))
	}
	return hex.EncodeToString(h.Sum(nil))
}

// NormalizeInput returns the NFC normalization of an input string.
// All input entering the system (CLI arguments, scenario files, batch
// input lists) is normalized before it touches a tape or a hash, so the
// same logical input always yields the same run identity.
func NormalizeInput(s string) string {
	return norm.NFC.String(s)
}

// ProgramHash computes the content-addressed ID of a program.
// Only the canonical instruction list participates; name and description
// are labels, not identity.
func ProgramHash(p *Program) string {
	return hashWithDomain(DomainProgram, p.Canonical())
}

// RunID computes the content-addressed ID of a run: the same program,
// input, and step quota always produce the same ID. The input is NFC
// normalized before hashing.
func RunID(programHash, input string, maxSteps int) string {
	return hashWithDomain(DomainRun, programHash, NormalizeInput(input), strconv.Itoa(maxSteps))
}
