package llmcall

import (
	"log/slog"
	"sync"

	"github.com/jackzampolin/mitc/internal/providers"
)

// DefaultCapacity is the number of calls kept when none is configured.
const DefaultCapacity = 500

// Recorder keeps the most recent calls in a fixed-size ring. Nothing is
// persisted; older calls are overwritten.
type Recorder struct {
	mu     sync.RWMutex
	calls  []Call
	next   int
	full   bool
	total  int64
	logger *slog.Logger
}

// NewRecorder creates a recorder holding up to capacity calls.
func NewRecorder(capacity int, logger *slog.Logger) *Recorder {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{
		calls:  make([]Call, capacity),
		logger: logger,
	}
}

// Record captures a model call. A nil recorder is a no-op.
func (r *Recorder) Record(result *providers.GenerateResult, err error, opts RecordOptions) {
	if r == nil {
		return
	}
	r.RecordCall(FromGenerateResult(result, err, opts))
}

// RecordCall stores an already-constructed Call.
func (r *Recorder) RecordCall(call *Call) {
	if r == nil || call == nil {
		return
	}

	r.mu.Lock()
	r.calls[r.next] = *call
	r.next = (r.next + 1) % len(r.calls)
	if r.next == 0 {
		r.full = true
	}
	r.total++
	r.mu.Unlock()

	r.logger.Debug("recorded llm call",
		"id", call.ID,
		"request_id", call.RequestID,
		"provider", call.Provider,
		"prompt_key", call.PromptKey,
		"success", call.Success,
		"latency_ms", call.LatencyMs)
}

// Len returns the number of calls currently held.
func (r *Recorder) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.full {
		return len(r.calls)
	}
	return r.next
}

// Total returns the number of calls ever recorded.
func (r *Recorder) Total() int64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.total
}

// snapshot returns held calls, newest first.
func (r *Recorder) snapshot() []Call {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := r.next
	if r.full {
		n = len(r.calls)
	}
	out := make([]Call, 0, n)
	for i := 1; i <= n; i++ {
		idx := (r.next - i + len(r.calls)) % len(r.calls)
		out = append(out, r.calls[idx])
	}
	return out
}
