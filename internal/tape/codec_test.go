package tape

import (
	"bytes"
	"io"
	"testing"
)

func TestCodecRoundTrip(t *testing.T) {
	data := bytes.Repeat([]byte("the quick brown fox jumps over the lazy dog. "), 200)

	for _, c := range []Codec{CodecNone, CodecLZ4, CodecSnappy} {
		var buf bytes.Buffer
		if err := c.WriteAll(&buf, data); err != nil {
			t.Fatalf("codec %d: WriteAll: %v", c, err)
		}
		got, err := io.ReadAll(c.Reader(&buf))
		if err != nil {
			t.Fatalf("codec %d: read back: %v", c, err)
		}
		if !bytes.Equal(got, data) {
			t.Fatalf("codec %d: round trip mismatch (%d bytes vs %d)", c, len(got), len(data))
		}
	}
}

func TestCodecEmptyPayload(t *testing.T) {
	for _, c := range []Codec{CodecNone, CodecLZ4, CodecSnappy} {
		var buf bytes.Buffer
		if err := c.WriteAll(&buf, nil); err != nil {
			t.Fatalf("codec %d: WriteAll(nil): %v", c, err)
		}
		got, err := io.ReadAll(c.Reader(&buf))
		if err != nil {
			t.Fatalf("codec %d: read back empty: %v", c, err)
		}
		if len(got) != 0 {
			t.Fatalf("codec %d: expected no bytes back, got %d", c, len(got))
		}
	}
}
