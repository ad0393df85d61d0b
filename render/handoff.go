package render

// Handoff passes emissions to a consumer goroutine. It holds at most one
// pending emission; a newer one replaces it, so a slow consumer always sees
// the latest data and never blocks the pipeline.
type Handoff struct {
	ch chan *Emission
}

// NewHandoff returns an empty handoff.
func NewHandoff() *Handoff {
	return &Handoff{ch: make(chan *Emission, 1)}
}

// Write stores e as the pending emission. It never blocks.
func (h *Handoff) Write(e *Emission) error {
	for {
		select {
		case h.ch <- e:
			return nil
		default:
		}

		// Drop the stale one and try again.
		select {
		case <-h.ch:
		default:
		}
	}
}

// C returns the channel the consumer reads from.
func (h *Handoff) C() <-chan *Emission {
	return h.ch
}
