package observability

import (
	"log"
	"sync"
)

// CompareObserver tracks per-provider branch outcomes across runs and raises
// a one-shot alert when a provider fails repeatedly. A success resets the
// provider's streak and re-arms the alert.
type CompareObserver struct {
	logger *log.Logger

	mu        sync.Mutex
	failures  map[string]int64
	alerted   map[string]bool
	threshold int64
}

func NewCompareObserver(logger *log.Logger) *CompareObserver {
	if logger == nil {
		logger = log.Default()
	}
	return &CompareObserver{
		logger:    logger,
		failures:  make(map[string]int64),
		alerted:   make(map[string]bool),
		threshold: 3,
	}
}

func (o *CompareObserver) RecordBranch(provider string, ok bool, latencyMS int64) {
	if o == nil {
		return
	}
	if ok {
		o.mu.Lock()
		o.failures[provider] = 0
		o.alerted[provider] = false
		o.mu.Unlock()
		o.logger.Printf("compare branch provider=%s ok=true latency_ms=%d", provider, latencyMS)
		return
	}

	o.mu.Lock()
	o.failures[provider]++
	count := o.failures[provider]
	alert := count >= o.threshold && !o.alerted[provider]
	if alert {
		o.alerted[provider] = true
	}
	o.mu.Unlock()

	o.logger.Printf("compare branch provider=%s ok=false consecutive_failures=%d", provider, count)
	if alert {
		o.logger.Printf("ALERT: provider %s has failed %d consecutive branches", provider, count)
	}
}

func (o *CompareObserver) RecordRun(requestID, winner string, elapsedMS int64) {
	if o == nil {
		return
	}
	o.logger.Printf("compare run request_id=%s winner=%q elapsed_ms=%d", requestID, winner, elapsedMS)
}

// Failures reports the provider's current consecutive-failure streak.
func (o *CompareObserver) Failures(provider string) int64 {
	if o == nil {
		return 0
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.failures[provider]
}
