package tape

import (
	"errors"
	"io"
	"os"
	"sync"
	"sync/atomic"
)

// sharedBacking is a seekable, read/write file shared among every segment
// carved out of it, guarded by a mutex so the double-buffered threaded
// cleaner can spill concurrently with a merge reading an already-frozen
// segment. cachedPos/tainted elide redundant Seek syscalls the way a
// single-threaded cursor would, just behind a lock instead of a RefCell.
type sharedBacking struct {
	mu        sync.Mutex
	file      *os.File
	cachedPos int64
	tainted   bool
	refCount  int32
}

func newSharedBacking(f *os.File) *sharedBacking {
	return &sharedBacking{file: f, tainted: true, refCount: 1}
}

func (b *sharedBacking) ensureOffsetLocked(off int64) error {
	if b.tainted || b.cachedPos != off {
		if _, err := b.file.Seek(off, io.SeekStart); err != nil {
			b.tainted = true
			return err
		}
		b.cachedPos = off
		b.tainted = false
	}
	return nil
}

func (b *sharedBacking) readAt(off int64, buf []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.ensureOffsetLocked(off); err != nil {
		return 0, err
	}
	n, err := b.file.Read(buf)
	if err != nil && err != io.EOF {
		b.tainted = true
	} else {
		b.cachedPos += int64(n)
	}
	return n, err
}

func (b *sharedBacking) writeAt(off int64, buf []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.ensureOffsetLocked(off); err != nil {
		return 0, err
	}
	n, err := b.file.Write(buf)
	if err != nil {
		b.tainted = true
		return n, err
	}
	b.cachedPos += int64(n)
	return n, nil
}

// seekEnd seeks the underlying file to its current end, returning the
// resulting offset. Used to pin down a new segment's start.
func (b *sharedBacking) seekEnd() (int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	end, err := b.file.Seek(0, io.SeekEnd)
	if err != nil {
		b.tainted = true
		return 0, err
	}
	b.cachedPos = end
	b.tainted = false
	return end, nil
}

func (b *sharedBacking) retain() {
	atomic.AddInt32(&b.refCount, 1)
}

func (b *sharedBacking) release() error {
	if atomic.AddInt32(&b.refCount, -1) == 0 {
		return b.file.Close()
	}
	return nil
}

// SplitView is a single random-access file partitioned into append-only,
// independently readable segments: a bump allocator over one file,
// avoiding the file-descriptor explosion a file-per-run scheme would
// cause once many runs are packed together.
type SplitView struct {
	backing *sharedBacking
}

// NewSplitView takes ownership of f as the backing store for a fresh set
// of segments.
func NewSplitView(f *os.File) *SplitView {
	return &SplitView{backing: newSharedBacking(f)}
}

// WholeAsSegment registers the backing's pre-existing content [0, length)
// as a frozen, independently readable segment. Used the first time a
// plain tape's file is promoted into shared backing: its own content
// becomes the first shared tape before any new segment is appended.
func (v *SplitView) WholeAsSegment(length int64) *SegmentReader {
	v.backing.retain()
	return &SegmentReader{backing: v.backing, segmentEnd: length}
}

// Close releases the view's own reference to the backing file. Frozen
// segment readers carved out of the view keep their own references, so
// the file stays open until the last of them closes too.
func (v *SplitView) Close() error {
	return v.backing.release()
}

// AddSegment opens a new append-only segment starting at the file's
// current end.
func (v *SplitView) AddSegment() (*SegmentWriter, error) {
	start, err := v.backing.seekEnd()
	if err != nil {
		return nil, err
	}
	v.backing.retain()
	return &SegmentWriter{backing: v.backing, segmentStart: start}, nil
}

// SegmentWriter is an append-only handle pinned to a range
// [segmentStart, segmentStart+length) of a shared backing file.
type SegmentWriter struct {
	backing      *sharedBacking
	segmentStart int64
	length       int64
}

func (w *SegmentWriter) Write(p []byte) (int, error) {
	n, err := w.backing.writeAt(w.segmentStart+w.length, p)
	w.length += int64(n)
	return n, err
}

// Discard releases the writer's backing reference without freezing it
// into a reader. Used when a spill into the segment fails partway; the
// half-written bytes stay behind as dead space in the backing file.
func (w *SegmentWriter) Discard() error {
	return w.backing.release()
}

// Freeze closes the writer's growth and returns a reader over exactly the
// bytes written, transferring the writer's backing reference to it.
func (w *SegmentWriter) Freeze() *SegmentReader {
	return &SegmentReader{
		backing:      w.backing,
		segmentEnd:   w.segmentStart + w.length,
		currentIndex: w.segmentStart,
	}
}

// SegmentReader is a read cursor over [segmentStart, segmentEnd) of a
// shared backing file.
type SegmentReader struct {
	backing      *sharedBacking
	segmentEnd   int64
	currentIndex int64
	closed       bool
}

func (r *SegmentReader) Read(p []byte) (int, error) {
	if r.closed {
		return 0, errors.New("tape: read from closed segment reader")
	}
	remaining := r.segmentEnd - r.currentIndex
	if remaining <= 0 {
		return 0, io.EOF
	}
	if int64(len(p)) > remaining {
		p = p[:remaining]
	}
	n, err := r.backing.readAt(r.currentIndex, p)
	r.currentIndex += int64(n)
	if err == nil && n == 0 {
		err = io.EOF
	}
	return n, err
}

// Close releases this segment's reference to the shared backing file,
// closing the file once the last segment referencing it is closed.
func (r *SegmentReader) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	return r.backing.release()
}
