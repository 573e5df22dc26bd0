package utils

import (
	"strconv"
	"strings"
)

const (
	byteSizeStep      = 1024
	fractionLimit     = 10
	wholeUnitFraction = ".0"
)

var byteSizeUnits = [...]string{"b", "kb", "mb", "gb", "tb", "pb"}

// FormatByteSize renders size in lower-case binary units: whole bytes below one kilobyte,
// one decimal place below ten units and whole units above. Negative sizes render as 0b.
func FormatByteSize(size int64) string {
	if size < byteSizeStep {
		return strconv.FormatInt(max(size, 0), 10) + byteSizeUnits[0]
	}
	scaled := float64(size)
	unitIndex := 0
	for scaled >= byteSizeStep && unitIndex < len(byteSizeUnits)-1 {
		scaled /= byteSizeStep
		unitIndex++
	}
	if scaled < fractionLimit {
		return strings.TrimSuffix(strconv.FormatFloat(scaled, 'f', 1, 64), wholeUnitFraction) + byteSizeUnits[unitIndex]
	}
	return strconv.FormatFloat(scaled, 'f', 0, 64) + byteSizeUnits[unitIndex]
}

// FormatTextSize renders the encoded length of a merged document or file content.
func FormatTextSize(text string) string {
	return FormatByteSize(int64(len(text)))
}
