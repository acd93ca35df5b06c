package table

// streaming.go cleans an uploaded byte stream before it reaches the CSV parser:
//
//   - a UTF-8 byte order mark written by Windows tools is dropped
//   - invalid UTF-8 bytes are replaced with '?'
//   - bytes are counted so callers can log how much was read
//
// Nothing here buffers more than one bufio window.

import (
	"bufio"
	"bytes"
	"io"
	"unicode/utf8"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// NewCleanReader wraps r so that reads are BOM-free valid UTF-8.
func NewCleanReader(r io.Reader) *bufio.Reader {
	src := bufio.NewReader(r)
	if head, err := src.Peek(len(utf8BOM)); err == nil && bytes.Equal(head, utf8BOM) {
		_, _ = src.Discard(len(utf8BOM))
	}
	return bufio.NewReader(&utf8Sanitizer{src: src})
}

// utf8Sanitizer re-encodes its source rune by rune, replacing every invalid
// byte with '?'. A replacement rune that straddles the caller's buffer is
// held in pend until the next Read.
type utf8Sanitizer struct {
	src  *bufio.Reader
	pend []byte
}

// Read implements io.Reader.
func (s *utf8Sanitizer) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	n := copy(p, s.pend)
	s.pend = s.pend[n:]

	var buf [utf8.UTFMax]byte
	for n < len(p) {
		// Never block on the source once something is ready to hand back.
		if n > 0 && s.src.Buffered() == 0 {
			break
		}
		r, size, err := s.src.ReadRune()
		if err != nil {
			if n > 0 {
				return n, nil
			}
			return 0, err
		}

		w := 1
		if r == utf8.RuneError && size == 1 {
			buf[0] = '?'
		} else {
			w = utf8.EncodeRune(buf[:], r)
		}
		c := copy(p[n:], buf[:w])
		n += c
		if c < w {
			s.pend = append([]byte(nil), buf[c:w]...)
		}
	}
	return n, nil
}

// CountingReader tracks the number of bytes read through it.
type CountingReader struct {
	r io.Reader
	n int64
}

// NewCountingReader wraps r.
func NewCountingReader(r io.Reader) *CountingReader {
	return &CountingReader{r: r}
}

// Read implements io.Reader.
func (c *CountingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

// BytesRead returns the number of bytes read so far.
func (c *CountingReader) BytesRead() int64 { return c.n }
