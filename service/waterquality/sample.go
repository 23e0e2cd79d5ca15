package waterquality

import (
	"fmt"
	"strconv"
)

// Sample holds the nine water parameters the predictor scores.
type Sample struct {
	PH              float64 `json:"ph"`
	Hardness        float64 `json:"hardness"`
	Solids          float64 `json:"solids"`
	Chloramines     float64 `json:"chloramines"`
	Sulfate         float64 `json:"sulfate"`
	Conductivity    float64 `json:"conductivity"`
	OrganicCarbon   float64 `json:"organic_carbon"`
	Trihalomethanes float64 `json:"trihalomethanes"`
	Turbidity       float64 `json:"turbidity"`
}

// Range is an inclusive interval.
type Range struct {
	Min float64
	Max float64
}

func (r Range) Contains(v float64) bool {
	return r.Min <= v && v <= r.Max
}

// Parameter describes one field of a Sample.
type Parameter struct {
	Name string
	// Typical is the plausible measurement range; values outside it produce
	// a warning but are still scored.
	Typical Range
	// Potable is the range the offline rule accepts as safe.
	Potable Range
	value   func(Sample) float64
}

func (p Parameter) Value(s Sample) float64 {
	return p.value(s)
}

// Parameters in the order the predictor expects them.
var Parameters = []Parameter{
	{"ph", Range{0, 14}, Range{6.5, 8.5}, func(s Sample) float64 { return s.PH }},
	{"hardness", Range{0, 1000}, Range{0, 200}, func(s Sample) float64 { return s.Hardness }},
	{"solids", Range{0, 100000}, Range{0, 500}, func(s Sample) float64 { return s.Solids }},
	{"chloramines", Range{0, 20}, Range{0, 4}, func(s Sample) float64 { return s.Chloramines }},
	{"sulfate", Range{0, 1000}, Range{0, 250}, func(s Sample) float64 { return s.Sulfate }},
	{"conductivity", Range{0, 2000}, Range{0, 500}, func(s Sample) float64 { return s.Conductivity }},
	{"organic_carbon", Range{0, 50}, Range{0, 10}, func(s Sample) float64 { return s.OrganicCarbon }},
	{"trihalomethanes", Range{0, 200}, Range{0, 80}, func(s Sample) float64 { return s.Trihalomethanes }},
	{"turbidity", Range{0, 20}, Range{0, 5}, func(s Sample) float64 { return s.Turbidity }},
}

// Warnings lists the parameters outside their typical range.
func (s Sample) Warnings() []string {
	var warnings []string
	for _, p := range Parameters {
		if v := p.value(s); !p.Typical.Contains(v) {
			warnings = append(warnings, fmt.Sprintf("%s (%s) is outside typical range (%s-%s)",
				p.Name, format(v), format(p.Typical.Min), format(p.Typical.Max)))
		}
	}
	return warnings
}

// Potable applies the offline threshold rule. Only the pH has a lower
// bound; every other parameter is checked against its maximum.
func (s Sample) Potable() bool {
	for _, p := range Parameters {
		v := p.value(s)
		if p.Name == "ph" {
			if !p.Potable.Contains(v) {
				return false
			}
			continue
		}
		if v > p.Potable.Max {
			return false
		}
	}
	return true
}

// Set assigns a parameter by name.
func (s *Sample) Set(name string, v float64) error {
	switch name {
	case "ph":
		s.PH = v
	case "hardness":
		s.Hardness = v
	case "solids":
		s.Solids = v
	case "chloramines":
		s.Chloramines = v
	case "sulfate":
		s.Sulfate = v
	case "conductivity":
		s.Conductivity = v
	case "organic_carbon":
		s.OrganicCarbon = v
	case "trihalomethanes":
		s.Trihalomethanes = v
	case "turbidity":
		s.Turbidity = v
	default:
		return fmt.Errorf("unknown parameter %q", name)
	}
	return nil
}

func format(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
