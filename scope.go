package fusion

import (
	"encoding/json"
	"fmt"
)

// Scope specifies the lifetime of a resolved value. The scope determines
// which store caches the value and when its cleanup runs.
type Scope int

const (
	// Application specifies that a single value is created on first use and
	// shared by every request for the lifetime of the container. Application
	// values must not depend on request-scoped values. Cleanups run when the
	// container closes.
	Application Scope = iota

	// Request specifies that a new value is created once per resolution
	// context, typically one per HTTP request. Cleanups run when the context
	// closes, in reverse acquisition order.
	Request

	// Transient specifies that a new value is created every time the
	// declaration is resolved. Transient values are never cached; each
	// resolution registers its own cleanup.
	Transient
)

// String returns the string representation of the Scope.
func (s Scope) String() string {
	switch s {
	case Application:
		return "Application"
	case Request:
		return "Request"
	case Transient:
		return "Transient"
	default:
		return fmt.Sprintf("Unknown(%d)", int(s))
	}
}

// IsValid checks if the scope is one of the three supported values.
func (s Scope) IsValid() bool {
	return s >= Application && s <= Transient
}

// outlives reports whether a value in scope s lives at least as long as a
// value in scope other. Narrower scopes may depend on broader ones, never the
// reverse: Application outlives Request outlives Transient.
func (s Scope) outlives(other Scope) bool {
	return s <= other
}

// MarshalText implements encoding.TextMarshaler.
func (s Scope) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Scope) UnmarshalText(text []byte) error {
	switch string(text) {
	case "Application", "application":
		*s = Application
	case "Request", "request":
		*s = Request
	case "Transient", "transient":
		*s = Transient
	default:
		return &ScopeValueError{Value: string(text)}
	}
	return nil
}

// MarshalJSON implements json.Marshaler.
func (s Scope) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON implements json.Unmarshaler.
func (s *Scope) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}

	return s.UnmarshalText([]byte(str))
}
