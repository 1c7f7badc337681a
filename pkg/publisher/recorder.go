package publisher

import (
	"context"
	"sync"
)

// Call is one recorded publisher invocation
type Call struct {
	Op      string
	URL     string
	Caption string
}

// Recorder is an in-memory Publisher that records every call. FailOn
// makes the matching call return Err instead.
type Recorder struct {
	mu    sync.Mutex
	calls []Call

	FailOn func(Call) bool
	Err    error
}

// NewRecorder creates an empty recorder
func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) PostVideo(ctx context.Context, videoURL, caption string) error {
	return r.record(Call{Op: "video", URL: videoURL, Caption: caption})
}

func (r *Recorder) PostImage(ctx context.Context, imageURL, caption string) error {
	return r.record(Call{Op: "image", URL: imageURL, Caption: caption})
}

func (r *Recorder) PostText(ctx context.Context, caption string) error {
	return r.record(Call{Op: "text", Caption: caption})
}

func (r *Recorder) record(call Call) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.FailOn != nil && r.FailOn(call) {
		return r.Err
	}
	r.calls = append(r.calls, call)
	return nil
}

// Calls returns the successful calls in order
func (r *Recorder) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()

	calls := make([]Call, len(r.calls))
	copy(calls, r.calls)
	return calls
}
