// Package frame handles Subaru frame identifiers such as FCSA00012345.
//
// A frame id is a three character instrument code, a frame type (A for
// science frames, Q for engineering), a prefix digit and a seven digit
// frame number. The prefix digit extends the number space once the seven
// digits are exhausted.
package frame

import (
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

const numberLimit = 9999999

var (
	ErrFrameID  = errors.New("invalid frame id")
	ErrOverflow = errors.New("count exceeds digit space")
)

var frameRe = regexp.MustCompile(`^(\w{3})([AaQq])(\d)(\d{7})$`)

type Frame struct {
	InsCode   string
	FrameType string
	Prefix    int
	Number    int
}

// Parse decodes a frame id. Surrounding whitespace is ignored.
func Parse(id string) (Frame, error) {
	m := frameRe.FindStringSubmatch(strings.TrimSpace(id))
	if m == nil {
		return Frame{}, fmt.Errorf("%w: %q", ErrFrameID, id)
	}
	prefix, _ := strconv.Atoi(m[3])
	number, _ := strconv.Atoi(m[4])
	return Frame{
		InsCode:   strings.ToUpper(m[1]),
		FrameType: strings.ToUpper(m[2]),
		Prefix:    prefix,
		Number:    number,
	}, nil
}

// FromPath parses the frame id from a file name such as /data/FCSA00012345.fits.
func FromPath(path string) (Frame, error) {
	base := filepath.Base(path)
	return Parse(strings.TrimSuffix(base, filepath.Ext(base)))
}

func (f Frame) String() string {
	return fmt.Sprintf("%3.3s%1.1s%1d%07d", f.InsCode, f.FrameType, f.Prefix, f.Number)
}

// Count is the frame number including the prefix digit.
func (f Frame) Count() int {
	return f.Prefix*(numberLimit+1) + f.Number
}

// Add returns the frame n positions later (or earlier for negative n),
// carrying into the prefix digit when the seven digits overflow.
func (f Frame) Add(n int) (Frame, error) {
	count := f.Count() + n
	if count < 0 || count > 9*(numberLimit+1)+numberLimit {
		return Frame{}, fmt.Errorf("%w: %s%+d", ErrOverflow, f, n)
	}
	f.Prefix = count / (numberLimit + 1)
	f.Number = count % (numberLimit + 1)
	return f, nil
}

func (f Frame) Next() (Frame, error) { return f.Add(1) }

// Sibling returns the path of frame g in the same directory as path.
func Sibling(path string, g Frame) string {
	return filepath.Join(filepath.Dir(path), g.String()+".fits")
}
