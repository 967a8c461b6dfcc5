// internal/search/response.go
package search

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrInputClosed indicates the response stream ended before the session finished
var ErrInputClosed = errors.New("response input closed")

const (
	// Prompt is shown before every response is read.
	Prompt = `Press "n" if you don't hear anything, "y" if you do: `
	// InvalidNotice is shown after a line that is neither "y" nor "n".
	InvalidNotice = "Invalid input. Please press 'n' or 'y'. Sound continues..."

	// maxLineBytes bounds how much of one input line is kept. Longer lines
	// are consumed to their end and answered as Invalid.
	maxLineBytes = 4096
)

// Response is the listener's answer to one trial.
type Response uint8

const (
	Invalid Response = iota
	NotDetected
	Detected
)

func (r Response) String() string {
	switch r {
	case Detected:
		return "detected"
	case NotDetected:
		return "not-detected"
	default:
		return "invalid"
	}
}

// ParseResponse maps one input line to a Response.
// Case and surrounding whitespace are ignored.
func ParseResponse(line string) Response {
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y":
		return Detected
	case "n":
		return NotDetected
	default:
		return Invalid
	}
}

// ResponseSource yields the listener's answers. NextResponse blocks until an
// answer is available; Invalid is a normal return, not an error.
type ResponseSource interface {
	NextResponse(ctx context.Context) (Response, error)
}

// LineSource reads one response per line, prompting on out before each read.
type LineSource struct {
	reader *bufio.Reader
	out    io.Writer
}

// NewLineSource reads answers from in and writes prompts to out.
func NewLineSource(in io.Reader, out io.Writer) *LineSource {
	return &LineSource{reader: bufio.NewReader(in), out: out}
}

// NextResponse prompts, reads a line and parses it. Invalid lines print a
// notice and return Invalid so the caller can ask again.
func (s *LineSource) NextResponse(ctx context.Context) (Response, error) {
	if err := ctx.Err(); err != nil {
		return Invalid, err
	}

	fmt.Fprint(s.out, Prompt)

	line, overflow, err := s.readLine()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return Invalid, ErrInputClosed
		}
		return Invalid, fmt.Errorf("read response: %w", err)
	}

	r := Invalid
	if !overflow {
		r = ParseResponse(line)
	}
	if r == Invalid {
		fmt.Fprintln(s.out, InvalidNotice)
	}
	return r, nil
}

// readLine returns the next line without its terminator. A line longer than
// maxLineBytes is read through to its newline and reported with overflow set.
// A final line without a newline is still returned; io.EOF only comes back
// once nothing is left.
func (s *LineSource) readLine() (line string, overflow bool, err error) {
	var buf []byte
	for {
		chunk, rerr := s.reader.ReadSlice('\n')
		if !overflow {
			if len(buf)+len(chunk) > maxLineBytes {
				overflow = true
				buf = nil
			} else {
				buf = append(buf, chunk...)
			}
		}

		switch {
		case rerr == nil:
			return strings.TrimRight(string(buf), "\r\n"), overflow, nil
		case errors.Is(rerr, bufio.ErrBufferFull):
			continue
		case errors.Is(rerr, io.EOF):
			if len(buf) > 0 || overflow {
				return string(buf), overflow, nil
			}
			return "", false, io.EOF
		default:
			return "", false, rerr
		}
	}
}
