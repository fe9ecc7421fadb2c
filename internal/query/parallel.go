package query

import "github.com/grailbio/base/traverse"

// ParallelEach runs fn(i) for i in [0,n) through
// github.com/grailbio/base/traverse.Each and returns the first error
// encountered. It does not go through a QueryContext's worker-pool
// semaphore.
func ParallelEach(n int, fn func(i int) error) error {
	return traverse.Each(n, fn)
}
