package utils

import (
	"runtime"
	"sync"
)

// MultiThread runs f on every integer in [start, end), spread across goroutines. It returns once
// all calls have finished.
//
// designed for use by operators in their mass calculations: each call to f must only write to
// values that no other index writes to
//
// 'opsPerThread' is the number of indexes that each goroutine will handle before requesting another set
// 'threadsPerCPU' is the number of goroutines created for each CPU
func MultiThread(start, end int, f func(int), opsPerThread, threadsPerCPU int) {
	if end <= start {
		return
	}

	numThreads := runtime.NumCPU() * threadsPerCPU
	if n := (end - start + opsPerThread - 1) / opsPerThread; n < numThreads {
		numThreads = n
	}

	index := start
	var indexMux sync.Mutex

	var wg sync.WaitGroup

	wg.Add(numThreads)
	for thread := 0; thread < numThreads; thread++ {
		go func() {
			defer wg.Done()

			for {
				indexMux.Lock()
				if index >= end {
					indexMux.Unlock()
					return
				}

				i := index
				index += opsPerThread
				indexMux.Unlock()

				e := i + opsPerThread
				if e > end {
					e = end
				}

				for ; i < e; i++ {
					f(i)
				}
			}
		}()
	}

	wg.Wait()
}

// Parallel is MultiThread over [0, n), one index at a time, with one goroutine per CPU.
func Parallel(n int, f func(int)) {
	MultiThread(0, n, f, 1, 1)
}
