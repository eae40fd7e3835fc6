// Package device runs data-parallel passes on a persistent worker pool.
//
// A dispatch splits [0, n) into workgroup-aligned chunks, hands them to the
// workers and returns only after every chunk has finished. That return is the
// completion barrier between passes: no invocation of the next dispatch can
// observe a partially written buffer from the previous one.
package device

import (
	"fmt"
	"runtime"
	"sync"
)

// DefaultWorkgroupSize matches the workgroup size used by the solver kernels.
const DefaultWorkgroupSize = 256

// defaultParallelThreshold is the minimum invocation count worth fanning out.
// Below this, running inline is faster than the channel round trip.
const defaultParallelThreshold = 512

// Kernel processes the invocations in [i0, i1). Invocations are independent:
// a kernel must never write a slot owned by another invocation.
type Kernel func(i0, i1 int)

// DispatchError reports an invocation range that panicked.
type DispatchError struct {
	Pass  string
	Start int
	End   int
	Value any
}

func (e *DispatchError) Error() string {
	return fmt.Sprintf("device: pass %q invocations [%d,%d) panicked: %v", e.Pass, e.Start, e.End, e.Value)
}

// Options configures an Executor.
type Options struct {
	Workers           int // 0 = GOMAXPROCS
	WorkgroupSize     int // 0 = DefaultWorkgroupSize
	ParallelThreshold int // 0 = default, negative = always parallel
}

// workChunk is a range of invocations for one worker.
type workChunk struct {
	pass       string
	start, end int
	kernel     Kernel
}

// Executor is a persistent worker pool. It is driven from a single host
// goroutine; Dispatch must not be called concurrently.
type Executor struct {
	numWorkers    int
	workgroupSize int
	threshold     int

	// Worker pool channels
	workChan chan workChunk // sends work to workers
	doneChan chan error     // workers signal completion
	stopChan chan struct{}  // signals workers to exit
	wg       sync.WaitGroup // tracks active workers
	running  bool           // true if workers are running

	dispatches uint64
}

// New creates an executor. Workers are started lazily on the first parallel
// dispatch.
func New(opts Options) *Executor {
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	wg := opts.WorkgroupSize
	if wg <= 0 {
		wg = DefaultWorkgroupSize
	}
	threshold := opts.ParallelThreshold
	switch {
	case threshold == 0:
		threshold = defaultParallelThreshold
	case threshold < 0:
		threshold = 0
	}
	return &Executor{
		numWorkers:    workers,
		workgroupSize: wg,
		threshold:     threshold,
	}
}

// Workers returns the pool size.
func (e *Executor) Workers() int { return e.numWorkers }

// WorkgroupSize returns the chunk alignment.
func (e *Executor) WorkgroupSize() int { return e.workgroupSize }

// Dispatches returns how many dispatches have completed.
func (e *Executor) Dispatches() uint64 { return e.dispatches }

// WorkgroupCount returns ceil(n / workgroup size).
func (e *Executor) WorkgroupCount(n int) int {
	return (n + e.workgroupSize - 1) / e.workgroupSize
}

// startWorkers launches persistent worker goroutines.
func (e *Executor) startWorkers() {
	if e.running {
		return
	}

	e.workChan = make(chan workChunk, e.numWorkers)
	e.doneChan = make(chan error, e.numWorkers)
	e.stopChan = make(chan struct{})
	e.running = true

	for i := 0; i < e.numWorkers; i++ {
		e.wg.Add(1)
		go e.worker()
	}
}

// Close signals all workers to exit and waits for them.
func (e *Executor) Close() {
	if !e.running {
		return
	}

	close(e.stopChan)
	e.wg.Wait()
	close(e.workChan)
	close(e.doneChan)
	e.running = false
}

// worker runs in a goroutine, processing chunks until stopped.
func (e *Executor) worker() {
	defer e.wg.Done()

	for {
		select {
		case <-e.stopChan:
			return
		case chunk, ok := <-e.workChan:
			if !ok {
				return
			}
			e.doneChan <- runChunk(chunk)
		}
	}
}

// runChunk executes one chunk, converting a panic into a DispatchError.
func runChunk(c workChunk) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &DispatchError{Pass: c.pass, Start: c.start, End: c.end, Value: r}
		}
	}()
	c.kernel(c.start, c.end)
	return nil
}

// Dispatch runs kernel over n invocations and blocks until all complete.
// If any chunk panics, the first DispatchError is returned after the barrier.
func (e *Executor) Dispatch(pass string, n int, kernel Kernel) error {
	if n <= 0 {
		return nil
	}
	defer func() { e.dispatches++ }()

	// Single-threaded for small passes
	if n < e.threshold || e.numWorkers == 1 {
		return runChunk(workChunk{pass: pass, start: 0, end: n, kernel: kernel})
	}

	if !e.running {
		e.startWorkers()
	}

	// Chunk size rounded up to a whole number of workgroups
	chunkSize := (n + e.numWorkers - 1) / e.numWorkers
	chunkSize = e.WorkgroupCount(chunkSize) * e.workgroupSize

	dispatched := 0
	for start := 0; start < n; start += chunkSize {
		end := min(start+chunkSize, n)
		e.workChan <- workChunk{pass: pass, start: start, end: end, kernel: kernel}
		dispatched++
	}

	// Barrier: wait for every chunk
	var first error
	for i := 0; i < dispatched; i++ {
		if err := <-e.doneChan; err != nil && first == nil {
			first = err
		}
	}
	return first
}
