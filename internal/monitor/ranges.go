package monitor

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/go-playground/validator/v10"

	"github.com/i474232898/aquawatch/internal/common"
)

var validate = newValidator()

// newValidator registers the "finite_number" tag, which accepts exactly what
// common.ParseNumber accepts (".5", "1e-3", surrounding spaces).
func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("finite_number", func(fl validator.FieldLevel) bool {
		_, ok := common.ParseNumber(fl.Field().String())
		return ok
	})
	return v
}

// Range is an inclusive safe band for one parameter.
type Range struct {
	Min float64 `json:"min" toml:"min"`
	Max float64 `json:"max" toml:"max"`
}

// Contains reports whether v lies within [Min, Max].
func (r Range) Contains(v float64) bool {
	return v >= r.Min && v <= r.Max
}

// RangeConfig holds the safe band of every monitored parameter. It is an
// immutable snapshot for the duration of one evaluation.
type RangeConfig struct {
	Temperature     Range `json:"temperature" toml:"temperature"`
	PH              Range `json:"ph" toml:"ph"`
	DissolvedOxygen Range `json:"do" toml:"do"`
	Ammonia         Range `json:"ammonia" toml:"ammonia"`
}

// DefaultRanges returns the bands used when nothing has been saved.
func DefaultRanges() RangeConfig {
	return RangeConfig{
		Temperature:     Range{Min: 28, Max: 31},
		PH:              Range{Min: 7.0, Max: 8.5},
		DissolvedOxygen: Range{Min: 5, Max: 7},
		Ammonia:         Range{Min: 0, Max: 0.02},
	}
}

// For returns the band for p.
func (c RangeConfig) For(p Parameter) Range {
	switch p {
	case ParamTemperature:
		return c.Temperature
	case ParamPH:
		return c.PH
	case ParamDissolvedOxygen:
		return c.DissolvedOxygen
	case ParamAmmonia:
		return c.Ammonia
	}
	return Range{}
}

func (c *RangeConfig) set(p Parameter, r Range) {
	switch p {
	case ParamTemperature:
		c.Temperature = r
	case ParamPH:
		c.PH = r
	case ParamDissolvedOxygen:
		c.DissolvedOxygen = r
	case ParamAmmonia:
		c.Ammonia = r
	}
}

type storedBound struct {
	Min Number `json:"min"`
	Max Number `json:"max"`
}

// ParseRangeConfig decodes a persisted or remote threshold mapping. Bounds may
// be numbers or numeric strings; anything missing or unparseable keeps the
// value from defaults.
func ParseRangeConfig(data []byte, defaults RangeConfig) (RangeConfig, error) {
	var raw map[string]storedBound
	if err := json.Unmarshal(data, &raw); err != nil {
		return defaults, fmt.Errorf("decode ranges: %w", err)
	}
	cfg := defaults
	for key, b := range raw {
		p, err := ParseParameter(key)
		if err != nil {
			continue
		}
		r := cfg.For(p)
		if b.Min.Valid {
			r.Min = b.Min.Value
		}
		if b.Max.Valid {
			r.Max = b.Max.Value
		}
		cfg.set(p, r)
	}
	return cfg, nil
}

// BoundForm is one parameter's bounds as entered by the user.
type BoundForm struct {
	Min Text `json:"min" validate:"required,finite_number"`
	Max Text `json:"max" validate:"required,finite_number"`
}

// RangeForm is the unparsed settings form submitted on save.
type RangeForm struct {
	Temperature     BoundForm `json:"temperature"`
	PH              BoundForm `json:"ph"`
	DissolvedOxygen BoundForm `json:"do"`
	Ammonia         BoundForm `json:"ammonia"`
}

// FormFromConfig renders cfg as form input.
func FormFromConfig(cfg RangeConfig) RangeForm {
	bf := func(r Range) BoundForm {
		return BoundForm{Min: Text(formatFloat(r.Min)), Max: Text(formatFloat(r.Max))}
	}
	return RangeForm{
		Temperature:     bf(cfg.Temperature),
		PH:              bf(cfg.PH),
		DissolvedOxygen: bf(cfg.DissolvedOxygen),
		Ammonia:         bf(cfg.Ammonia),
	}
}

// Config validates the form and converts it. Any non-numeric bound, or a band
// whose min exceeds its max, fails with ErrInvalidRange.
func (f RangeForm) Config() (RangeConfig, error) {
	if err := validate.Struct(f); err != nil {
		return RangeConfig{}, fmt.Errorf("%w: %v", ErrInvalidRange, err)
	}

	var cfg RangeConfig
	fields := map[Parameter]BoundForm{
		ParamTemperature:     f.Temperature,
		ParamPH:              f.PH,
		ParamDissolvedOxygen: f.DissolvedOxygen,
		ParamAmmonia:         f.Ammonia,
	}
	for _, p := range Parameters {
		b := fields[p]
		lo, ok := common.ParseNumber(string(b.Min))
		if !ok {
			return RangeConfig{}, fmt.Errorf("%w: %s min %q is not a number", ErrInvalidRange, p, b.Min)
		}
		hi, ok := common.ParseNumber(string(b.Max))
		if !ok {
			return RangeConfig{}, fmt.Errorf("%w: %s max %q is not a number", ErrInvalidRange, p, b.Max)
		}
		if lo > hi {
			return RangeConfig{}, fmt.Errorf("%w: %s min %v exceeds max %v", ErrInvalidRange, p, lo, hi)
		}
		cfg.set(p, Range{Min: lo, Max: hi})
	}
	return cfg, nil
}

// formatFloat never uses exponent notation so the form reads back as typed.
func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
