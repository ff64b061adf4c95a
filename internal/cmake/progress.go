package cmake

import (
	"bytes"
	"io"
	"os"
	"regexp"
	"strconv"
	"time"

	"github.com/schollz/progressbar/v3"
	"golang.org/x/term"
)

var (
	// makePercentRegex matches the Makefile generator's "[ 42%] Building ..." lines.
	makePercentRegex = regexp.MustCompile(`^\[\s*(\d+)%\]`)

	// ninjaStepRegex matches ninja's "[12/345] Building ..." lines.
	ninjaStepRegex = regexp.MustCompile(`^\[(\d+)/(\d+)\]`)
)

// IsTerminal reports whether f is attached to a terminal, which is when a
// progress bar is worth drawing.
func IsTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// ParseProgress extracts a completion percentage from one line of build
// tool output. ok is false for lines that carry no progress.
func ParseProgress(line string) (int, bool) {
	if m := makePercentRegex.FindStringSubmatch(line); m != nil {
		n, err := strconv.Atoi(m[1])
		if err != nil {
			return 0, false
		}
		return n, true
	}
	if m := ninjaStepRegex.FindStringSubmatch(line); m != nil {
		done, err1 := strconv.Atoi(m[1])
		total, err2 := strconv.Atoi(m[2])
		if err1 != nil || err2 != nil || total == 0 {
			return 0, false
		}
		return done * 100 / total, true
	}
	return 0, false
}

// progressWriter feeds build tool output line by line into a progress bar.
type progressWriter struct {
	bar     *progressbar.ProgressBar
	pending []byte
	last    int
}

func newProgressWriter(w io.Writer, description string) *progressWriter {
	bar := progressbar.NewOptions(100,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWidth(40),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionClearOnFinish(),
	)
	return &progressWriter{bar: bar}
}

// Write implements io.Writer. Partial lines are held until completed.
func (p *progressWriter) Write(b []byte) (int, error) {
	p.pending = append(p.pending, b...)
	for {
		i := bytes.IndexByte(p.pending, '\n')
		if i < 0 {
			break
		}
		line := string(bytes.TrimRight(p.pending[:i], "\r"))
		p.pending = p.pending[i+1:]

		// Make prints per-target percentages, which can go backwards
		// between targets; the bar only moves forward.
		if n, ok := ParseProgress(line); ok && n > p.last {
			p.last = n
			_ = p.bar.Set(n)
		}
	}
	return len(b), nil
}

// Finish clears the bar, completing it first when the build succeeded.
func (p *progressWriter) Finish(success bool) {
	if success {
		_ = p.bar.Finish()
		return
	}
	_ = p.bar.Clear()
}
