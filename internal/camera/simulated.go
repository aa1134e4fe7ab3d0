package camera

import (
	"time"

	"golang.org/x/time/rate"

	"github.com/stfc-aeg/odin-orca-quest/internal/imaging"
)

// defaultFrameRate is the simulated camera's frame rate before any
// exposure_time/frame_rate property is pushed to it (120 fps), matching
// the C++ SimulatedCamera's default frame_time_ of 1/120s.
const defaultFrameRate = 120.0

// Simulated is the deterministic synthetic frame source. Frame production
// is gated by wall clock via a token-bucket limiter rather than
// hand-rolled time.Since comparisons: golang.org/x/time/rate is exactly
// the "allow at most once every frame_time" primitive this needs.
type Simulated struct {
	connected    bool
	capturing    bool
	frameCount   uint64
	cameraNumber uint

	limiter *rate.Limiter
	gen     *imaging.Generator
}

// NewSimulated returns a new simulated camera, gated at the default frame rate.
func NewSimulated() *Simulated {
	return &Simulated{
		limiter: rate.NewLimiter(rate.Limit(defaultFrameRate), 1),
		gen:     imaging.NewGenerator(2304, 4096),
	}
}

func (s *Simulated) APIInit() error { return nil }

func (s *Simulated) Connect(index int) error {
	s.connected = true
	return nil
}

func (s *Simulated) Disconnect() error {
	s.connected = false
	return nil
}

func (s *Simulated) AttachBuffer(nFrames int) error { return nil }

func (s *Simulated) PrepareCapture(timeout time.Duration) error {
	s.capturing = true
	return nil
}

// CaptureFrame returns a freshly rendered frame no more often than the
// configured frame rate allows; between ticks it returns ok=false exactly
// as a hardware camera would on a capture-wait timeout.
func (s *Simulated) CaptureFrame() ([]byte, bool) {
	if !s.capturing {
		return nil, false
	}
	if !s.limiter.Allow() {
		return nil, false
	}
	payload := s.gen.Generate(s.cameraNumber, s.frameCount)
	s.frameCount++
	return payload, true
}

func (s *Simulated) AbortCapture() error {
	s.capturing = false
	return nil
}

func (s *Simulated) Disarm() error {
	s.capturing = false
	return nil
}

func (s *Simulated) RemoveBuffer() error { return nil }

func (s *Simulated) Close() error {
	s.connected = false
	s.capturing = false
	return nil
}

// SetProperty applies the subset of controller-level properties that
// affect the simulated camera's timing and identity, mirroring
// SimulatedCamera::set_property in the C++ original.
func (s *Simulated) SetProperty(name string, value interface{}) bool {
	switch name {
	case "exposure_time":
		if v, ok := toFloat(value); ok && v > 0 {
			s.limiter.SetLimit(rate.Limit(1.0 / v))
			return true
		}
		return false
	case "frame_rate":
		if v, ok := toFloat(value); ok && v > 0 {
			s.limiter.SetLimit(rate.Limit(v))
			return true
		}
		return false
	case "camera_number":
		if v, ok := toFloat(value); ok {
			s.cameraNumber = uint(v)
			return true
		}
		return false
	default:
		// Trigger source/active/mode/polarity/connector have no observable
		// effect on a synthetic frame source; accept them unconditionally
		// so configuration diffs involving them still commit.
		return true
	}
}

func (s *Simulated) GetProperty(id int32) float64 { return 0.0 }

func (s *Simulated) GetDeviceCount() int { return 1 }

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	default:
		return 0, false
	}
}
