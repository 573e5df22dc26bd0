package output

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/mattn/go-isatty"
)

const (
	progressLineFormat = "\r%s %3d%%"
	progressDoneSuffix = "\n"
)

// ProgressLine prints a single self-overwriting percentage line. Updates that do not change
// the value are dropped.
type ProgressLine struct {
	mutex   sync.Mutex
	writer  io.Writer
	label   string
	last    int
	started bool
}

// NewProgressLine returns a progress line on file, or nil when file is not a terminal. A nil
// *ProgressLine accepts every call and prints nothing.
func NewProgressLine(file *os.File, label string) *ProgressLine {
	if file == nil || !(isatty.IsTerminal(file.Fd()) || isatty.IsCygwinTerminal(file.Fd())) {
		return nil
	}
	return NewProgressWriter(file, label)
}

// NewProgressWriter returns a progress line on writer regardless of its kind.
func NewProgressWriter(writer io.Writer, label string) *ProgressLine {
	return &ProgressLine{writer: writer, label: label, last: -1}
}

// Update prints percent when it differs from the last printed value.
func (progressLine *ProgressLine) Update(percent int) {
	if progressLine == nil {
		return
	}
	progressLine.mutex.Lock()
	defer progressLine.mutex.Unlock()
	if percent == progressLine.last {
		return
	}
	progressLine.last = percent
	progressLine.started = true
	fmt.Fprintf(progressLine.writer, progressLineFormat, progressLine.label, percent)
}

// Finish terminates the line if anything was printed.
func (progressLine *ProgressLine) Finish() {
	if progressLine == nil {
		return
	}
	progressLine.mutex.Lock()
	defer progressLine.mutex.Unlock()
	if progressLine.started {
		fmt.Fprint(progressLine.writer, progressDoneSuffix)
		progressLine.started = false
		progressLine.last = -1
	}
}
