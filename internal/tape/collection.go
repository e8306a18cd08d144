package tape

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/csvquery/extsort/internal/recordio"
	"github.com/csvquery/extsort/internal/run"
)

type plainTape struct {
	numEntries int
	file       *os.File
}

type sharedTape struct {
	numEntries int
	reader     *SegmentReader
}

// Collection is the bounded-file-count spill store: it creates one
// exclusive temp file per run up to maxFiles, then packs additional runs
// as segments round-robin across exactly those maxFiles backing files.
type Collection[T any] struct {
	tempDir  string
	maxFiles int
	codec    Codec

	plainTapes  []plainTape
	sharedTapes []sharedTape
	slots       []*SplitView

	nextTapeIdx int
}

// NewCollection builds an empty collection rooted at tempDir, capping the
// number of exclusive files at maxFiles (clamped to at least 1).
func NewCollection[T any](tempDir string, maxFiles int, codec Codec) *Collection[T] {
	if maxFiles < 1 {
		maxFiles = 1
	}
	return &Collection[T]{
		tempDir:  tempDir,
		maxFiles: maxFiles,
		codec:    codec,
		slots:    make([]*SplitView, maxFiles),
	}
}

// AddRun spills buf, which the caller has already sorted: it is written
// as its raw byte image to a
// fresh exclusive file while the cap hasn't been reached, or packed into
// one of the maxFiles shared backing files afterwards. On success buf is
// truncated to length zero; on failure it is left untouched so the
// caller can retry.
func (c *Collection[T]) AddRun(buf *[]T) error {
	var err error
	if c.nextTapeIdx < c.maxFiles {
		err = c.addRunSimple(buf)
	} else {
		err = c.addRunShared(buf)
	}
	if err != nil {
		return err
	}
	c.nextTapeIdx++
	return nil
}

func (c *Collection[T]) spillName(idx int) string {
	return filepath.Join(c.tempDir, fmt.Sprintf("%d_%p_sort_file_%d", os.Getpid(), c, idx))
}

func (c *Collection[T]) addRunSimple(buf *[]T) error {
	f, err := createSpillFile(c.spillName(c.nextTapeIdx))
	if err != nil {
		return err
	}
	numEntries := len(*buf)
	if err := c.fillBacking(f, buf); err != nil {
		f.Close()
		return err
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		f.Close()
		return err
	}
	c.plainTapes = append(c.plainTapes, plainTape{numEntries: numEntries, file: f})
	return nil
}

func (c *Collection[T]) addRunShared(buf *[]T) error {
	slot := c.nextTapeIdx % c.maxFiles
	view := c.slots[slot]
	if view == nil {
		var f *os.File
		var preexisting int64
		var preexistingEntries int
		if n := len(c.plainTapes); n > 0 {
			pt := c.plainTapes[n-1]
			c.plainTapes = c.plainTapes[:n-1]
			f = pt.file
			preexistingEntries = pt.numEntries
			size, err := f.Seek(0, io.SeekEnd)
			if err != nil {
				return err
			}
			preexisting = size
		} else {
			var err error
			f, err = createSpillFile(c.spillName(c.nextTapeIdx))
			if err != nil {
				return err
			}
		}
		view = NewSplitView(f)
		c.slots[slot] = view
		if preexistingEntries > 0 {
			c.sharedTapes = append(c.sharedTapes, sharedTape{
				numEntries: preexistingEntries,
				reader:     view.WholeAsSegment(preexisting),
			})
		}
	}

	w, err := view.AddSegment()
	if err != nil {
		return err
	}
	numEntries := len(*buf)
	if err := c.fillBacking(w, buf); err != nil {
		w.Discard()
		return err
	}
	c.sharedTapes = append(c.sharedTapes, sharedTape{numEntries: numEntries, reader: w.Freeze()})
	return nil
}

// fillBacking writes buf's raw byte image into w under the configured
// codec, then truncates buf to zero length on success only.
func (c *Collection[T]) fillBacking(w io.Writer, buf *[]T) error {
	data := recordio.AsBytes(*buf)
	if err := c.codec.WriteAll(w, data); err != nil {
		return err
	}
	*buf = (*buf)[:0]
	return nil
}

// IntoRuns distributes readBudget items across all tapes (max(1,
// readBudget/n) each) and converts every tape into a BufferedFileRun,
// wrapping its backing reader with the configured codec's decoder.
// Ownership of every tape moves into the returned runs; the collection
// is left empty. On error, every tape and already-built run is closed.
func (c *Collection[T]) IntoRuns(readBudget int) ([]run.Run[T], error) {
	total := len(c.plainTapes) + len(c.sharedTapes)
	if total == 0 {
		c.Discard()
		return nil, nil
	}
	perTape := readBudget / total
	if perTape < 1 {
		perTape = 1
	}

	runs := make([]run.Run[T], 0, total)
	fail := func(err error) ([]run.Run[T], error) {
		for _, r := range runs {
			r.Close()
		}
		c.Discard()
		return nil, err
	}
	for len(c.plainTapes) > 0 {
		pt := c.plainTapes[0]
		reader := c.codec.Reader(pt.file)
		fr, err := run.NewBufferedFileRun[T](reader, pt.file, pt.numEntries, perTape)
		if err != nil {
			return fail(err)
		}
		runs = append(runs, fr)
		c.plainTapes = c.plainTapes[1:]
	}
	for len(c.sharedTapes) > 0 {
		st := c.sharedTapes[0]
		reader := c.codec.Reader(st.reader)
		fr, err := run.NewBufferedFileRun[T](reader, st.reader, st.numEntries, perTape)
		if err != nil {
			return fail(err)
		}
		runs = append(runs, fr)
		c.sharedTapes = c.sharedTapes[1:]
	}
	c.releaseSlots()
	return runs, nil
}

// Discard closes every tape still owned by the collection without
// converting anything into runs. Called when a sort is abandoned after a
// spill failure, and by the no-spill fast path on a collection that
// never saw a run. Idempotent.
func (c *Collection[T]) Discard() {
	for _, pt := range c.plainTapes {
		pt.file.Close()
	}
	c.plainTapes = nil
	for _, st := range c.sharedTapes {
		st.reader.Close()
	}
	c.sharedTapes = nil
	c.releaseSlots()
}

// releaseSlots drops the collection's own references to the shared
// backing files; each file stays open until its last segment reader
// closes too.
func (c *Collection[T]) releaseSlots() {
	for i, v := range c.slots {
		if v != nil {
			v.Close()
			c.slots[i] = nil
		}
	}
}
