package processor

import (
	"github.com/golang/glog"
	"github.com/google/uuid"

	"github.com/siradar/zenith/frame"
)

// Listener is notified for every frame that decoded successfully, before it
// is transformed. Listeners run on the pipeline goroutine in the order they
// were added.
type Listener interface {
	OnFrame(raw []byte, f frame.Frame)
}

// ListenerFunc adapts a function to Listener.
type ListenerFunc func(raw []byte, f frame.Frame)

// OnFrame calls fn(raw, f).
func (fn ListenerFunc) OnFrame(raw []byte, f frame.Frame) {
	fn(raw, f)
}

// LogListener returns a listener that logs every payload at verbosity 2.
func LogListener(session uuid.UUID) Listener {
	return ListenerFunc(func(raw []byte, f frame.Frame) {
		if !glog.V(2) {
			return
		}

		if f.HasRamp {
			glog.Infof("[%s] Ramp %d in: %x", session, f.Ramp, raw)
			return
		}

		glog.Infof("[%s] Ramp in: %x", session, raw)
	})
}
