package engine

import (
	"fmt"
	"sync"
	"time"

	"github.com/chazu/sculpt/pkg/logging"
	"github.com/chazu/sculpt/pkg/scene"
)

// EvalTimeout is the default limit for a single evaluation.
const EvalTimeout = 5 * time.Second

// evalResult carries one evaluation's output back from its goroutine.
type evalResult struct {
	scene  *scene.Scene
	errors []EvalError
	err    error
}

// waitWithTimeout waits up to limit for a result from ch. Results from an
// evaluation that is no longer the latest are discarded.
//
// On timeout the goroutine may still be running; the generation check
// discards its result when it eventually completes.
func waitWithTimeout(
	ch <-chan evalResult,
	limit time.Duration,
	gen uint64,
	mu *sync.Mutex,
	currentGen *uint64,
) (*scene.Scene, []EvalError, error) {
	timer := time.NewTimer(limit)
	defer timer.Stop()

	select {
	case res := <-ch:
		mu.Lock()
		current := *currentGen
		mu.Unlock()

		if gen != current {
			logging.For("engine").Debug("stale result discarded", "generation", gen, "current", current)
			return nil, nil, fmt.Errorf("evaluation superseded by newer request")
		}
		return res.scene, res.errors, res.err

	case <-timer.C:
		logging.For("engine").Warn("evaluation timed out", "generation", gen, "limit", limit)
		return nil, nil, fmt.Errorf("evaluation timed out after %s", limit)
	}
}
