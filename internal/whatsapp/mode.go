package whatsapp

import "fmt"

// Mode decides who receives lead messages.
type Mode int

const (
	// ModeSandbox sends every message to the admin destination so real
	// customers are never contacted while testing.
	ModeSandbox Mode = iota
	// ModeProduction sends to the lead's own number.
	ModeProduction
)

// ParseMode reads the WHATSAPP_MODE value.
func ParseMode(raw string) (Mode, error) {
	switch raw {
	case "sandbox":
		return ModeSandbox, nil
	case "production":
		return ModeProduction, nil
	default:
		return 0, fmt.Errorf("unknown whatsapp mode %q", raw)
	}
}

func (m Mode) String() string {
	if m == ModeProduction {
		return "production"
	}
	return "sandbox"
}
