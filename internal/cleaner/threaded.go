package cleaner

import (
	"fmt"
	"sync"
	"syscall"

	"github.com/csvquery/extsort/internal/order"
	"github.com/csvquery/extsort/internal/run"
	"github.com/csvquery/extsort/internal/tape"
)

type cmdKind int

const (
	cmdClean cmdKind = iota
	cmdFinalize
	cmdDiscard
)

type command[T any] struct {
	kind       cmdKind
	buf        []T
	readBudget int
}

type finalizeResult[T any] struct {
	runs []run.Run[T]
	err  error
}

// Threaded is the double-buffered cleaner: one worker goroutine sorts
// and spills the previous buffer while the main goroutine fills the
// next. Commands and responses cross two synchronous, capacity-1
// channels; the worker's final run list travels on a separate
// buffered-1 "done" channel so the reply path never contends with the
// next command.
type Threaded[T any] struct {
	cmdCh      chan command[T]
	respCh     chan []T
	doneCh     chan finalizeResult[T]
	workerDone chan struct{}

	mu  sync.Mutex
	err error
	fin sync.Once

	bufCap int
}

// NewThreaded spawns the worker goroutine and returns a handle to it.
// bufCap is the full configured sort-buffer capacity; the worker and the
// handle's GetBuffer both deal in half of it.
func NewThreaded[T any](tempDir string, maxFiles int, codec tape.Codec, cmp order.Comparator[T], sortFn SortFunc[T], bufCap int) *Threaded[T] {
	h := &Threaded[T]{
		cmdCh:      make(chan command[T], 1),
		respCh:     make(chan []T, 1),
		doneCh:     make(chan finalizeResult[T], 1),
		workerDone: make(chan struct{}),
		bufCap:     bufCap,
	}
	tapes := tape.NewCollection[T](tempDir, maxFiles, codec)
	go h.workerMain(tapes, cmp, sortFn)
	return h
}

func (h *Threaded[T]) spareCap() int {
	c := h.bufCap / 2
	if c < 1 {
		c = 1
	}
	return c
}

func (h *Threaded[T]) workerMain(tapes *tape.Collection[T], cmp order.Comparator[T], sortFn SortFunc[T]) {
	defer func() {
		if r := recover(); r != nil {
			tapes.Discard()
			h.fail(fmt.Errorf("extsort: buffer cleaner worker panicked: %v", r))
		}
	}()

	spare := make([]T, 0, h.spareCap())
	for cmd := range h.cmdCh {
		switch cmd.kind {
		case cmdClean:
			buf := cmd.buf
			h.respCh <- spare
			sortFn(buf, cmp)
			if err := tapes.AddRun(&buf); err != nil {
				tapes.Discard()
				h.fail(err)
				return
			}
			spare = buf
		case cmdFinalize:
			spare = nil
			runs, err := tapes.IntoRuns(cmd.readBudget)
			h.doneCh <- finalizeResult[T]{runs: runs, err: err}
			return
		case cmdDiscard:
			tapes.Discard()
			return
		}
	}
}

func (h *Threaded[T]) fail(err error) {
	h.fin.Do(func() {
		h.mu.Lock()
		h.err = err
		h.mu.Unlock()
		close(h.workerDone)
	})
}

func (h *Threaded[T]) brokenPipeErr() error {
	h.mu.Lock()
	cause := h.err
	h.mu.Unlock()
	if cause == nil {
		return fmt.Errorf("extsort: buffer cleaner worker exited: %w", syscall.EPIPE)
	}
	return fmt.Errorf("extsort: buffer cleaner worker exited: %v: %w", cause, syscall.EPIPE)
}

// CleanBuffer hands buf to the worker (setting *buf to nil first, the
// sentinel-empty-value stand-in for move semantics: ownership has
// conceptually passed to the worker) and blocks until its previously
// cleaned spare buffer comes back.
func (h *Threaded[T]) CleanBuffer(buf *[]T) error {
	b := *buf
	*buf = nil

	select {
	case h.cmdCh <- command[T]{kind: cmdClean, buf: b}:
	case <-h.workerDone:
		return h.brokenPipeErr()
	}

	select {
	case spare := <-h.respCh:
		*buf = spare
		return nil
	case <-h.workerDone:
		return h.brokenPipeErr()
	}
}

// GetBuffer returns a buffer at half the configured capacity: the worker
// holds an equally-sized companion, so two in-flight half buffers keep
// the overall memory ceiling at the configured budget.
func (h *Threaded[T]) GetBuffer() []T {
	return make([]T, 0, h.spareCap())
}

// Discard stops the worker and closes every tape spilled so far. If the
// worker already died on a spill failure it has discarded its own
// collection; there is nothing left to do here.
func (h *Threaded[T]) Discard() {
	select {
	case h.cmdCh <- command[T]{kind: cmdDiscard}:
	case <-h.workerDone:
	}
}

func (h *Threaded[T]) Finalize(readBudget int) ([]run.Run[T], error) {
	select {
	case h.cmdCh <- command[T]{kind: cmdFinalize, readBudget: readBudget}:
	case <-h.workerDone:
		return nil, h.brokenPipeErr()
	}

	select {
	case res := <-h.doneCh:
		return res.runs, res.err
	case <-h.workerDone:
		return nil, h.brokenPipeErr()
	}
}
