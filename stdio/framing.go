package stdio

import (
	"bufio"
	"bytes"
	"errors"
	"io"
)

// DefaultMaxFrameBytes is the inbound frame size limit applied when none is
// configured.
const DefaultMaxFrameBytes = 1 << 20

// errFrameTooLarge reports a line that exceeded the frame size limit. The
// remainder of the line has already been drained when it is returned, so the
// stream stays aligned on frame boundaries.
var errFrameTooLarge = errors.New("frame exceeds maximum size")

// frameReader yields newline-delimited frames from a stream. Blank lines are
// skipped, a trailing carriage return is tolerated, and a partial final line
// with no newline before EOF is discarded.
type frameReader struct {
	br  *bufio.Reader
	max int
}

func newFrameReader(r io.Reader, max int) *frameReader {
	if max <= 0 {
		max = DefaultMaxFrameBytes
	}
	return &frameReader{br: bufio.NewReader(r), max: max}
}

// next returns the next non-empty frame without its trailing newline.
func (fr *frameReader) next() ([]byte, error) {
	for {
		line, err := fr.readLine()
		if err != nil {
			return nil, err
		}
		line = bytes.TrimSuffix(line, []byte{'\r'})
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}
		return line, nil
	}
}

// readLine accumulates bytes up to the next newline. Once the accumulated
// line exceeds the limit the buffer is dropped but reading continues to the
// end of the line, so one oversized frame costs one error, not the stream.
func (fr *frameReader) readLine() ([]byte, error) {
	var buf []byte
	overflow := false
	for {
		chunk, err := fr.br.ReadSlice('\n')
		if !overflow {
			buf = append(buf, chunk...)
			if len(buf) > fr.max+1 {
				overflow = true
				buf = nil
			}
		}
		switch {
		case err == nil:
			if overflow || len(buf)-1 > fr.max {
				return nil, errFrameTooLarge
			}
			return buf[:len(buf)-1], nil
		case errors.Is(err, bufio.ErrBufferFull):
			continue
		case errors.Is(err, io.EOF):
			// A partial trailing line is discarded by contract.
			return nil, io.EOF
		default:
			return nil, err
		}
	}
}
