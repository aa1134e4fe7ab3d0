package camera

import "fmt"

// Default USB identity for the real camera variant. An integrator wiring
// this against specific hardware overrides these via New's vid and pid
// parameters.
const (
	DefaultVID uint16 = 0x0000
	DefaultPID uint16 = 0x0000
)

// New constructs the camera variant selected by simulated, selecting the
// variant at construction rather than an inline if/else in the
// controller, the way the original's CameraFactory.h is a tiny registry
// of its own.
func New(simulated bool, vid, pid uint16) (Camera, error) {
	if simulated {
		return NewSimulated(), nil
	}
	if vid == 0 && pid == 0 {
		return nil, fmt.Errorf("camera: real variant requires a non-zero vendor/product id")
	}
	return NewReal(vid, pid), nil
}
