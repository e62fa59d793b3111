package metadata

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	RequestNumberPrefix = "REQ"
	OpnameNumberPrefix  = "OPN"
	sequenceDigits      = 6
)

// DocumentNumber is a human readable, per-year sequenced identifier such as REQ-2026-000042.
type DocumentNumber struct {
	prefix   string
	year     int
	sequence int
}

func NewDocumentNumber(prefix string, year int, sequence int) DocumentNumber {
	return DocumentNumber{prefix: prefix, year: year, sequence: sequence}
}

func NewRequestNumber(year int, sequence int) DocumentNumber {
	return NewDocumentNumber(RequestNumberPrefix, year, sequence)
}

func NewOpnameNumber(year int, sequence int) DocumentNumber {
	return NewDocumentNumber(OpnameNumberPrefix, year, sequence)
}

func (d DocumentNumber) Generate() string {
	return fmt.Sprintf("%s-%04d-%0*d", d.prefix, d.year, sequenceDigits, d.sequence)
}

func (d DocumentNumber) Year() int {
	return d.year
}

func (d DocumentNumber) Sequence() int {
	return d.sequence
}

// YearPattern is the LIKE pattern matching every number of the given year.
func YearPattern(prefix string, year int) string {
	return fmt.Sprintf("%s-%04d-%%", prefix, year)
}

// ParseDocumentNumber reads a number generated by Generate back into its parts.
func ParseDocumentNumber(prefix string, value string) (DocumentNumber, error) {
	parts := strings.Split(value, "-")
	if len(parts) != 3 || parts[0] != prefix {
		return DocumentNumber{}, fmt.Errorf("invalid %s number: %q", prefix, value)
	}
	if len(parts[1]) != 4 || len(parts[2]) != sequenceDigits {
		return DocumentNumber{}, fmt.Errorf("invalid %s number: %q", prefix, value)
	}

	year, err := strconv.Atoi(parts[1])
	if err != nil {
		return DocumentNumber{}, fmt.Errorf("invalid year in %q: %w", value, err)
	}
	sequence, err := strconv.Atoi(parts[2])
	if err != nil || sequence < 1 {
		return DocumentNumber{}, fmt.Errorf("invalid sequence in %q", value)
	}

	return NewDocumentNumber(prefix, year, sequence), nil
}
