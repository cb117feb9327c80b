package common

import (
	"time"

	"github.com/invopop/jsonschema"
)

// Duration is a wrapper of time.Duration that can be decoded from
// "1m", "300ms" style strings in yaml, json and toml configuration files.
type Duration struct {
	time.Duration
}

// NewDuration returns a Duration wrapping d.
func NewDuration(d time.Duration) Duration {
	return Duration{Duration: d}
}

// UnmarshalText unmarshalls time duration from text.
func (d *Duration) UnmarshalText(data []byte) error {
	duration, err := time.ParseDuration(string(data))
	if err != nil {
		return err
	}
	d.Duration = duration

	return nil
}

// MarshalText renders the duration in the same format it is parsed from.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// JSONSchema returns a custom schema used for the config schema generation.
func (Duration) JSONSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type:        "string",
		Title:       "Duration",
		Description: "Duration expressed in units: [ns, us, ms, s, m, h]",
		Examples: []interface{}{
			"1m",
			"300ms",
		},
	}
}
