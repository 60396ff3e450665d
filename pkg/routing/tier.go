package routing

import (
	"fmt"
	"strings"
)

// Tier is a request complexity tier. Higher tiers need more capable models.
type Tier int

const (
	// Simple is for short, low-stakes prompts.
	Simple Tier = iota
	// Medium is the default tier.
	Medium
	// Complex is for multi-step analysis.
	Complex
	// Critical is for prompts where quality matters more than cost.
	Critical
)

// Tiers lists all tiers in ascending order.
var Tiers = []Tier{Simple, Medium, Complex, Critical}

// String returns the upper-case tier name.
func (t Tier) String() string {
	switch t {
	case Simple:
		return "SIMPLE"
	case Medium:
		return "MEDIUM"
	case Complex:
		return "COMPLEX"
	case Critical:
		return "CRITICAL"
	default:
		return fmt.Sprintf("TIER(%d)", int(t))
	}
}

// ParseTier parses a tier name, case-insensitively.
func ParseTier(s string) (Tier, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "SIMPLE":
		return Simple, nil
	case "MEDIUM":
		return Medium, nil
	case "COMPLEX":
		return Complex, nil
	case "CRITICAL":
		return Critical, nil
	default:
		return Medium, fmt.Errorf("unknown complexity tier %q", s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (t Tier) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *Tier) UnmarshalText(b []byte) error {
	parsed, err := ParseTier(string(b))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
