package services

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetTracer_SharedAcrossGoroutines(t *testing.T) {
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.Same(t, tracer, getTracer())
		}()
	}
	wg.Wait()
}
