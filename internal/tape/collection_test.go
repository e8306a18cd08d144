package tape

import (
	"testing"

	"github.com/csvquery/extsort/internal/recordio"
)

func collectAll(t *testing.T, c *Collection[int64], readBudget int) []int64 {
	t.Helper()
	runs, err := c.IntoRuns(readBudget)
	if err != nil {
		t.Fatalf("IntoRuns: %v", err)
	}
	var out []int64
	for _, r := range runs {
		for {
			v, ok := r.Next()
			if !ok {
				break
			}
			out = append(out, v)
		}
		if err := r.Close(); err != nil {
			t.Fatalf("Close run: %v", err)
		}
	}
	return out
}

func TestCollectionPlainTapesRoundTrip(t *testing.T) {
	dir := t.TempDir()
	c := NewCollection[int64](dir, 8, CodecNone)

	buf1 := []int64{1, 2, 3}
	buf2 := []int64{4, 5}
	if err := c.AddRun(&buf1); err != nil {
		t.Fatalf("AddRun: %v", err)
	}
	if len(buf1) != 0 {
		t.Fatalf("expected buf1 truncated to zero length after a successful spill, got %v", buf1)
	}
	if err := c.AddRun(&buf2); err != nil {
		t.Fatalf("AddRun: %v", err)
	}

	got := collectAll(t, c, 10)
	if len(got) != 5 {
		t.Fatalf("got %v, want 5 entries", got)
	}
}

func TestCollectionSharedPackingCapsExclusiveFiles(t *testing.T) {
	dir := t.TempDir()
	const maxFiles = 2
	c := NewCollection[int64](dir, maxFiles, CodecNone)

	for i := 0; i < 5; i++ {
		buf := []int64{int64(i), int64(i) + 100}
		if err := c.AddRun(&buf); err != nil {
			t.Fatalf("AddRun %d: %v", i, err)
		}
	}

	// Spill files are opened exclusively then immediately unlinked (see
	// tempfile_unix.go), so the cap is verified against the collection's
	// own bookkeeping rather than directory entries: exactly maxFiles
	// backing slots, each populated.
	populated := 0
	for _, s := range c.slots {
		if s != nil {
			populated++
		}
	}
	if populated != maxFiles {
		t.Fatalf("got %d populated shared slots, want exactly %d (maxFiles)", populated, maxFiles)
	}

	got := collectAll(t, c, 10)
	if len(got) != 10 {
		t.Fatalf("got %d entries, want 10", len(got))
	}
	seen := make(map[int64]bool)
	for _, v := range got {
		seen[v] = true
	}
	for i := 0; i < 5; i++ {
		if !seen[int64(i)] || !seen[int64(i)+100] {
			t.Fatalf("missing entries from run %d in %v", i, got)
		}
	}
}

func TestCollectionEmptyIntoRuns(t *testing.T) {
	dir := t.TempDir()
	c := NewCollection[int64](dir, 4, CodecNone)
	runs, err := c.IntoRuns(10)
	if err != nil {
		t.Fatalf("IntoRuns: %v", err)
	}
	if len(runs) != 0 {
		t.Fatalf("expected no runs from an empty collection, got %d", len(runs))
	}
}

func TestCollectionWithCompression(t *testing.T) {
	dir := t.TempDir()
	for _, codec := range []Codec{CodecLZ4, CodecSnappy} {
		c := NewCollection[int64](dir, 4, codec)
		buf := make([]int64, 500)
		for i := range buf {
			buf[i] = int64(i)
		}
		if err := c.AddRun(&buf); err != nil {
			t.Fatalf("codec %d: AddRun: %v", codec, err)
		}
		got := collectAll(t, c, 1000)
		if len(got) != 500 {
			t.Fatalf("codec %d: got %d entries, want 500", codec, len(got))
		}
		for i, v := range got {
			if v != int64(i) {
				t.Fatalf("codec %d: entry %d = %d, want %d", codec, i, v, i)
			}
		}
	}
}

func TestCollectionDiscardClosesTapes(t *testing.T) {
	dir := t.TempDir()
	c := NewCollection[int64](dir, 2, CodecNone)

	// Five runs against maxFiles=2 promote both plain tapes into shared
	// backing, leaving shared tapes and populated slots to tear down.
	for i := 0; i < 5; i++ {
		buf := []int64{int64(i)}
		if err := c.AddRun(&buf); err != nil {
			t.Fatalf("AddRun %d: %v", i, err)
		}
	}

	c.Discard()
	if len(c.plainTapes) != 0 || len(c.sharedTapes) != 0 {
		t.Fatalf("Discard left tapes behind: %d plain, %d shared", len(c.plainTapes), len(c.sharedTapes))
	}
	for i, s := range c.slots {
		if s != nil {
			t.Fatalf("Discard left shared slot %d populated", i)
		}
	}
	c.Discard() // must be safe to repeat

	runs, err := c.IntoRuns(10)
	if err != nil {
		t.Fatalf("IntoRuns after Discard: %v", err)
	}
	if len(runs) != 0 {
		t.Fatalf("expected a discarded collection to yield no runs, got %d", len(runs))
	}
}

func TestCollectionZeroSizedElement(t *testing.T) {
	dir := t.TempDir()
	c := NewCollection[struct{}](dir, 4, CodecNone)
	if recordio.Size[struct{}]() != 0 {
		t.Fatalf("test setup assumption broken: struct{} is not zero-sized")
	}
	buf := make([]struct{}, 3)
	if err := c.AddRun(&buf); err != nil {
		t.Fatalf("AddRun: %v", err)
	}
	runs, err := c.IntoRuns(10)
	if err != nil {
		t.Fatalf("IntoRuns: %v", err)
	}
	n := 0
	for _, r := range runs {
		for {
			if _, ok := r.Next(); !ok {
				break
			}
			n++
		}
		r.Close()
	}
	if n != 3 {
		t.Fatalf("got %d zero-sized entries, want 3", n)
	}
}
