package stdio

import (
	"errors"
	"io"
	"strings"
	"testing"
)

func TestFrameReader_SkipsBlankLines(t *testing.T) {
	fr := newFrameReader(strings.NewReader("\n\n{\"a\":1}\n   \n{\"b\":2}\n"), 64)

	first, err := fr.next()
	if err != nil {
		t.Fatalf("first frame: %v", err)
	}
	if string(first) != `{"a":1}` {
		t.Fatalf("first frame = %q", first)
	}

	second, err := fr.next()
	if err != nil {
		t.Fatalf("second frame: %v", err)
	}
	if string(second) != `{"b":2}` {
		t.Fatalf("second frame = %q", second)
	}

	if _, err := fr.next(); !errors.Is(err, io.EOF) {
		t.Fatalf("expected EOF, got %v", err)
	}
}

func TestFrameReader_TrimsCarriageReturn(t *testing.T) {
	fr := newFrameReader(strings.NewReader("{\"a\":1}\r\n"), 64)
	frame, err := fr.next()
	if err != nil {
		t.Fatalf("frame: %v", err)
	}
	if string(frame) != `{"a":1}` {
		t.Fatalf("frame = %q", frame)
	}
}

func TestFrameReader_DiscardsPartialFinalLine(t *testing.T) {
	fr := newFrameReader(strings.NewReader(`{"a":1}`), 64)
	if _, err := fr.next(); !errors.Is(err, io.EOF) {
		t.Fatalf("partial final line: got %v, want EOF", err)
	}
}

func TestFrameReader_OversizedLineDrained(t *testing.T) {
	big := strings.Repeat("x", 200)
	input := "{\"pad\":\"" + big + "\"}\n{\"ok\":true}\n"
	fr := newFrameReader(strings.NewReader(input), 32)

	if _, err := fr.next(); !errors.Is(err, errFrameTooLarge) {
		t.Fatalf("oversized line: got %v, want errFrameTooLarge", err)
	}

	// The oversized line was drained; the stream stays aligned.
	frame, err := fr.next()
	if err != nil {
		t.Fatalf("frame after oversize: %v", err)
	}
	if string(frame) != `{"ok":true}` {
		t.Fatalf("frame = %q", frame)
	}
}

func TestFrameReader_ExactLimitAccepted(t *testing.T) {
	line := strings.Repeat("a", 16)
	fr := newFrameReader(strings.NewReader(line+"\n"), 16)
	frame, err := fr.next()
	if err != nil {
		t.Fatalf("frame at exact limit: %v", err)
	}
	if string(frame) != line {
		t.Fatalf("frame = %q", frame)
	}
}
