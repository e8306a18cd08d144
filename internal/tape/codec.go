// Package tape implements the on-disk run storage the sort engine spills
// into: exclusive per-run files up to a configured cap, packed into
// shared, segment-partitioned backing files beyond that, with an
// optional streaming compression codec applied to whole tape payloads.
package tape

import (
	"fmt"
	"io"

	"github.com/golang/snappy"
	"github.com/pierrec/lz4/v4"
)

// Codec selects the streaming compression transform applied to a tape's
// payload end to end. There is no per-record framing: the whole buffer
// is written (and read back) as a single compressed stream.
type Codec int

const (
	CodecNone Codec = iota
	CodecLZ4
	CodecSnappy
)

// WriteAll writes data to w under the codec, flushing/closing any
// streaming encoder so the payload is fully durable on return.
func (c Codec) WriteAll(w io.Writer, data []byte) error {
	switch c {
	case CodecNone:
		if len(data) == 0 {
			return nil
		}
		_, err := w.Write(data)
		return err
	case CodecLZ4:
		zw := lz4.NewWriter(w)
		if len(data) > 0 {
			if _, err := zw.Write(data); err != nil {
				zw.Close()
				return err
			}
		}
		return zw.Close()
	case CodecSnappy:
		zw := snappy.NewBufferedWriter(w)
		if len(data) > 0 {
			if _, err := zw.Write(data); err != nil {
				zw.Close()
				return err
			}
		}
		return zw.Close()
	default:
		return fmt.Errorf("tape: unknown codec %d", c)
	}
}

// Reader wraps inner in the codec's decoder, or returns it unwrapped for
// CodecNone.
func (c Codec) Reader(inner io.Reader) io.Reader {
	switch c {
	case CodecLZ4:
		return lz4.NewReader(inner)
	case CodecSnappy:
		return snappy.NewReader(inner)
	default:
		return inner
	}
}
