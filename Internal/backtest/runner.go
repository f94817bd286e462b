package backtest

import (
	"runtime"
	"sync"
)

// JobResult pairs a job's input with its outcome. Err is per-job: one bad
// ticker does not sink the batch.
type JobResult struct {
	Input  Input
	Result *Result
	Err    error
}

// RunAll dispatches independent (ticker, profile) runs over a worker pool.
// Jobs share only read-only inputs, so no coordination is needed beyond the
// dispatch itself. Results come back in job order.
func RunAll(jobs []Input, workers int) []JobResult {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > len(jobs) {
		workers = len(jobs)
	}

	results := make([]JobResult, len(jobs))
	indexes := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range indexes {
				res, err := Run(jobs[i])
				results[i] = JobResult{Input: jobs[i], Result: res, Err: err}
			}
		}()
	}

	for i := range jobs {
		indexes <- i
	}
	close(indexes)
	wg.Wait()

	return results
}
