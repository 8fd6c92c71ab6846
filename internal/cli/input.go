package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
	"unicode"
	"unicode/utf8"
)

// MaxInputSize bounds a single line of user input.
const MaxInputSize = 4096

var (
	ErrInputTooLarge = errors.New("input exceeds maximum allowed size")
	ErrInvalidUTF8   = errors.New("input contains invalid UTF-8 sequences")
)

// SanitizeInput trims the line, rejects oversized or invalid UTF-8 input and
// strips control characters so they never reach the terminal or the logs.
func SanitizeInput(input string) (string, error) {
	if len(input) > MaxInputSize {
		return "", fmt.Errorf("%w: size=%d limit=%d", ErrInputTooLarge, len(input), MaxInputSize)
	}
	if !utf8.ValidString(input) {
		return "", ErrInvalidUTF8
	}
	var b strings.Builder
	b.Grow(len(input))
	for _, r := range input {
		if !unicode.IsControl(r) || r == '\t' {
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(b.String()), nil
}

type inputResult struct {
	text string
	err  error
}

// lineSource reads lines on a background goroutine so a read can race
// against a timer or context cancellation.
type lineSource struct {
	reader *bufio.Reader
	lines  chan inputResult
	once   sync.Once
}

func newLineSource(r io.Reader) *lineSource {
	return &lineSource{reader: bufio.NewReader(r)}
}

func (l *lineSource) start() {
	l.once.Do(func() {
		l.lines = make(chan inputResult)
		go l.pump()
	})
}

func (l *lineSource) pump() {
	defer close(l.lines)
	for {
		text, err := l.reader.ReadString('\n')
		if text != "" {
			l.lines <- inputResult{text: text}
		}
		if err != nil {
			if !errors.Is(err, io.EOF) {
				l.lines <- inputResult{err: err}
			}
			return
		}
	}
}

// errTimeout reports that the deadline passed before a line arrived.
var errTimeout = errors.New("input timeout")

// read waits for the next sanitized line. A nil deadline waits forever.
// io.EOF is returned once the input is exhausted.
func (l *lineSource) read(ctx context.Context, deadline <-chan time.Time) (string, error) {
	l.start()
	if err := ctx.Err(); err != nil {
		return "", err
	}
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case <-deadline:
		return "", errTimeout
	case res, ok := <-l.lines:
		if !ok {
			return "", io.EOF
		}
		if res.err != nil {
			return "", res.err
		}
		return SanitizeInput(res.text)
	}
}
