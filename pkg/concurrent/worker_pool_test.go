package concurrent

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWorkerPool(t *testing.T) {
	wp := NewWorkerPool[int, int](3, 10)
	wp.Start(func(job int) int {
		return job * job
	})
	for i := 1; i <= 10; i++ {
		wp.AddJob(i)
	}
	wp.Close()
	wp.Wait()

	sum := 0
	count := 0
	for res := range wp.CollectResults() {
		sum += res
		count++
	}
	assert.Equal(t, 10, count)
	assert.Equal(t, 385, sum)
}

func TestMap(t *testing.T) {
	testCases := []struct {
		name    string
		workers int
		jobs    []int
		want    int
	}{
		{name: "more jobs than workers", workers: 2, jobs: []int{1, 2, 3, 4, 5}, want: 30},
		{name: "single worker", workers: 1, jobs: []int{7}, want: 14},
		{name: "no jobs", workers: 4, jobs: nil, want: 0},
		{name: "invalid worker count", workers: 0, jobs: []int{1, 1}, want: 4},
	}

	for _, tt := range testCases {
		t.Run(tt.name, func(t *testing.T) {
			total := 0
			Map(tt.workers, tt.jobs, func(job int) int { return job * 2 }, func(res int) { total += res })
			assert.Equal(t, tt.want, total)
		})
	}
}
