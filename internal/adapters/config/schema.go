package config

import "gopkg.in/yaml.v3"

// Blueshift represents the structure of the blueshift.yaml descriptor.
type Blueshift struct {
	Version        string                `yaml:"version"`
	Root           string                `yaml:"root"`
	RequestTimeout string                `yaml:"requestTimeout"`
	MaxPending     int                   `yaml:"maxPending"`
	Driver         DriverDTO             `yaml:"driver"`
	Devices        map[string]*DeviceDTO `yaml:"devices"`
	Tasks          map[string]*TaskDTO   `yaml:"tasks"`
}

// DriverDTO selects the device driver.
type DriverDTO struct {
	Kind     string `yaml:"kind"`
	Dir      string `yaml:"dir"`
	Poll     string `yaml:"poll"`
	Debounce string `yaml:"debounce"`
}

// DeviceDTO represents a device definition in the configuration.
type DeviceDTO struct {
	Kind       string `yaml:"kind"`
	Controller string `yaml:"controller"`
	Initial    any    `yaml:"initial"`
	Virtual    bool   `yaml:"virtual"`
	Poll       string `yaml:"poll"`
}

// TaskDTO represents a task definition in the configuration.
type TaskDTO struct {
	Priority int          `yaml:"priority"`
	Reads    []ReadDTO    `yaml:"reads"`
	Writes   []WriteDTO   `yaml:"writes"`
	Triggers []TriggerDTO `yaml:"triggers"`
	Body     BodyDTO      `yaml:"body"`
}

// ReadDTO is one read binding. It accepts either a bare device name or a mapping.
type ReadDTO struct {
	Device           string `yaml:"device"`
	DropRead         bool   `yaml:"dropRead"`
	IgnoreWriteBacks bool   `yaml:"ignoreWriteBacks"`
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (r *ReadDTO) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		r.Device = value.Value
		return nil
	}
	type plain ReadDTO
	return value.Decode((*plain)(r))
}

// WriteDTO is one write binding. It accepts either a bare device name or a mapping.
type WriteDTO struct {
	Device    string `yaml:"device"`
	Overwrite string `yaml:"overwrite"`
	Yield     *bool  `yaml:"yield"`
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (w *WriteDTO) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		w.Device = value.Value
		return nil
	}
	type plain WriteDTO
	return value.Decode((*plain)(w))
}

// TriggerDTO is an explicit trigger rule.
type TriggerDTO struct {
	ID       string   `yaml:"id"`
	Rule     []string `yaml:"rule"`
	Priority int      `yaml:"priority"`
}

// BodyDTO selects the task body.
type BodyDTO struct {
	Kind string         `yaml:"kind"`
	Args map[string]any `yaml:"args"`
}
