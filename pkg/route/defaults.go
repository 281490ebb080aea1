package route

import "time"

// Built-in defaults.
const (
	DefaultLatencyMin = 100 * time.Millisecond
	DefaultLatencyMax = 500 * time.Millisecond
	DefaultTimeout    = 5000 * time.Millisecond
)

// Defaults is the global defaults object of a route collection.
type Defaults struct {
	// LatencyMin and LatencyMax bound the random delay of a route whose
	// latency is enabled without a delay or range of its own.
	LatencyMin time.Duration
	LatencyMax time.Duration

	// Timeout is the wait used by `timeout: true`.
	Timeout time.Duration
}

// BuiltinDefaults returns the defaults used when a collection declares none.
func BuiltinDefaults() Defaults {
	return Defaults{
		LatencyMin: DefaultLatencyMin,
		LatencyMax: DefaultLatencyMax,
		Timeout:    DefaultTimeout,
	}
}

// DefaultsDocument is the `defaults` section of a route collection, in
// milliseconds.
type DefaultsDocument struct {
	Latency *RangeDocument `json:"latency,omitempty" yaml:"latency,omitempty"`
	Timeout *float64       `json:"timeout,omitempty" yaml:"timeout,omitempty"`
}

// RangeDocument is a [min, max] range in milliseconds.
type RangeDocument struct {
	Min *float64 `json:"min,omitempty" yaml:"min,omitempty"`
	Max *float64 `json:"max,omitempty" yaml:"max,omitempty"`
}

// CompileDefaults overlays doc onto the built-in defaults.
func CompileDefaults(doc *DefaultsDocument) (Defaults, error) {
	d := BuiltinDefaults()
	if doc == nil {
		return d, nil
	}
	if doc.Latency != nil {
		lo, err := millis(doc.Latency.Min, "defaults.latency.min")
		if err != nil {
			return Defaults{}, err
		}
		hi, err := millis(doc.Latency.Max, "defaults.latency.max")
		if err != nil {
			return Defaults{}, err
		}
		if lo != nil {
			d.LatencyMin = *lo
		}
		if hi != nil {
			d.LatencyMax = *hi
		}
		if d.LatencyMin > d.LatencyMax {
			return Defaults{}, invalid("defaults.latency", "min must not exceed max")
		}
	}
	t, err := millis(doc.Timeout, "defaults.timeout")
	if err != nil {
		return Defaults{}, err
	}
	if t != nil && *t > 0 {
		d.Timeout = *t
	}
	return d, nil
}
