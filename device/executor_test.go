package device

import (
	"errors"
	"sync/atomic"
	"testing"
)

func TestDispatch_CoversEveryInvocationOnce(t *testing.T) {
	tests := []struct {
		name    string
		workers int
		n       int
	}{
		{"inline small", 4, 10},
		{"single worker", 1, 5000},
		{"parallel exact", 4, 4096},
		{"parallel ragged", 3, 1001},
		{"more workers than groups", 16, 300},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := New(Options{Workers: tt.workers, WorkgroupSize: 64, ParallelThreshold: -1})
			defer e.Close()

			hits := make([]int32, tt.n)
			err := e.Dispatch("count", tt.n, func(i0, i1 int) {
				for i := i0; i < i1; i++ {
					atomic.AddInt32(&hits[i], 1)
				}
			})
			if err != nil {
				t.Fatalf("dispatch: %v", err)
			}
			for i, h := range hits {
				if h != 1 {
					t.Fatalf("invocation %d ran %d times", i, h)
				}
			}
		})
	}
}

func TestDispatch_BarrierOrdersPasses(t *testing.T) {
	e := New(Options{Workers: 4, WorkgroupSize: 32, ParallelThreshold: -1})
	defer e.Close()

	const n = 2048
	a := make([]int, n)
	b := make([]int, n)

	if err := e.Dispatch("write", n, func(i0, i1 int) {
		for i := i0; i < i1; i++ {
			a[i] = i + 1
		}
	}); err != nil {
		t.Fatal(err)
	}
	// Every invocation reads a slot written by a different chunk.
	if err := e.Dispatch("read", n, func(i0, i1 int) {
		for i := i0; i < i1; i++ {
			b[i] = a[n-1-i]
		}
	}); err != nil {
		t.Fatal(err)
	}

	for i := range b {
		if b[i] != n-i {
			t.Fatalf("b[%d] = %d, want %d", i, b[i], n-i)
		}
	}
	if e.Dispatches() != 2 {
		t.Errorf("Dispatches() = %d, want 2", e.Dispatches())
	}
}

func TestDispatch_PanicBecomesError(t *testing.T) {
	for _, workers := range []int{1, 4} {
		e := New(Options{Workers: workers, ParallelThreshold: -1})

		err := e.Dispatch("boom", 1000, func(i0, i1 int) {
			for i := i0; i < i1; i++ {
				if i == 700 {
					panic("bad invocation")
				}
			}
		})
		var de *DispatchError
		if !errors.As(err, &de) {
			t.Fatalf("workers=%d: expected DispatchError, got %v", workers, err)
		}
		if de.Pass != "boom" || de.Start > 700 || de.End <= 700 {
			t.Errorf("workers=%d: unexpected error range %+v", workers, de)
		}

		// The pool stays usable after a failed dispatch.
		if err := e.Dispatch("ok", 1000, func(int, int) {}); err != nil {
			t.Errorf("workers=%d: follow-up dispatch failed: %v", workers, err)
		}
		e.Close()
	}
}

func TestDispatch_ZeroInvocations(t *testing.T) {
	e := New(Options{})
	defer e.Close()

	called := false
	if err := e.Dispatch("empty", 0, func(int, int) { called = true }); err != nil {
		t.Fatal(err)
	}
	if called {
		t.Error("kernel should not run for zero invocations")
	}
}

func TestWorkgroupCount(t *testing.T) {
	e := New(Options{WorkgroupSize: 256})
	cases := map[int]int{0: 0, 1: 1, 256: 1, 257: 2, 1000: 4}
	for n, want := range cases {
		if got := e.WorkgroupCount(n); got != want {
			t.Errorf("WorkgroupCount(%d) = %d, want %d", n, got, want)
		}
	}
}

func BenchmarkDispatch(b *testing.B) {
	e := New(Options{ParallelThreshold: -1})
	defer e.Close()

	data := make([]float32, 1<<16)
	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		_ = e.Dispatch("scale", len(data), func(i0, i1 int) {
			for j := i0; j < i1; j++ {
				data[j] = data[j]*0.5 + 1
			}
		})
	}
}
