// Package config implements the flat camera configuration record and its
// on-disk/over-the-wire loading, built on a github.com/knadh/koanf layered
// store so unrecognized keys are preserved rather than silently dropped
// by an unmarshal step: unrecognised keys stay in the store, but the
// controller ignores the ones it doesn't declare.
package config

import (
	"fmt"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/v2"
)

// Trigger source, active, mode, polarity and connector enums.
const (
	TriggerSourceInternal    = 1
	TriggerSourceExternal    = 2
	TriggerSourceSoftware    = 3
	TriggerSourceMasterPulse = 4

	TriggerActiveEdge  = 1
	TriggerActiveLevel = 2
	TriggerActivePulse = 3

	TriggerModeNormal = 1
	TriggerModePIV    = 2
	TriggerModeStart  = 3

	TriggerPolarityLow  = 1
	TriggerPolarityHigh = 2

	TriggerConnectorBNC       = 1
	TriggerConnectorInterface = 2
	TriggerConnectorMulti     = 3
)

// Camera holds the recognised camera configuration keys. Field order here
// is declaration order, which the controller's update_configuration
// relies on when pushing changed, camera-owned fields to the camera in
// declaration order.
type Camera struct {
	CameraNumber     uint    `koanf:"camera_number" mapstructure:"camera_number"`
	ImageTimeout     float64 `koanf:"image_timeout" mapstructure:"image_timeout"`
	NumFrames        uint    `koanf:"num_frames" mapstructure:"num_frames"`
	ExposureTime     float64 `koanf:"exposure_time" mapstructure:"exposure_time"`
	FrameRate        float64 `koanf:"frame_rate" mapstructure:"frame_rate"`
	TriggerSource    int     `koanf:"trigger_source" mapstructure:"trigger_source"`
	TriggerActive    int     `koanf:"trigger_active" mapstructure:"trigger_active"`
	TriggerMode      int     `koanf:"trigger_mode" mapstructure:"trigger_mode"`
	TriggerPolarity  int     `koanf:"trigger_polarity" mapstructure:"trigger_polarity"`
	TriggerConnector int     `koanf:"trigger_connector" mapstructure:"trigger_connector"`
	SimulatedCamera  bool    `koanf:"simulated_camera" mapstructure:"simulated_camera"`
}

// CameraOwnedFields lists, in declaration order, the configuration fields
// that the controller may push to the camera via Camera.SetProperty.
var CameraOwnedFields = []string{
	"camera_number",
	"exposure_time",
	"frame_rate",
	"trigger_source",
	"trigger_active",
	"trigger_mode",
	"trigger_polarity",
	"trigger_connector",
}

// FieldValue returns the named field's current value from c, for the
// CameraOwnedFields that the controller can ask the camera to honour.
func (c Camera) FieldValue(name string) interface{} {
	switch name {
	case "camera_number":
		return c.CameraNumber
	case "exposure_time":
		return c.ExposureTime
	case "frame_rate":
		return c.FrameRate
	case "trigger_source":
		return c.TriggerSource
	case "trigger_active":
		return c.TriggerActive
	case "trigger_mode":
		return c.TriggerMode
	case "trigger_polarity":
		return c.TriggerPolarity
	case "trigger_connector":
		return c.TriggerConnector
	default:
		return nil
	}
}

// Store holds the full configuration document, including keys not
// recognised by Camera, the way koanf's backing map naturally preserves
// whatever was loaded into it.
type Store struct {
	k *koanf.Koanf
}

// NewStore returns an empty configuration store.
func NewStore() *Store {
	return &Store{k: koanf.New(".")}
}

// LoadYAMLFile loads (and merges over any existing content) a YAML
// configuration file.
func (s *Store) LoadYAMLFile(path string) error {
	return s.k.Load(file.Provider(path), yaml.Parser())
}

// MergeMap merges an arbitrary key/value document (typically decoded from
// an IPC configure request's params.camera.* subtree) over the store.
func (s *Store) MergeMap(m map[string]interface{}) error {
	return s.k.Load(confmap.Provider(m, "."), nil)
}

// Camera unmarshals the recognised camera fields out of the store. Keys
// the store holds that Camera does not declare are simply ignored by this
// call -- they remain in the store for RequestConfiguration round-trips.
func (s *Store) Camera() (Camera, error) {
	var c Camera
	if err := s.k.Unmarshal("", &c); err != nil {
		return Camera{}, fmt.Errorf("config: unmarshal camera fields: %w", err)
	}
	return c, nil
}

// All returns the full raw configuration document, recognised and
// unrecognised keys alike.
func (s *Store) All() map[string]interface{} {
	return s.k.All()
}
