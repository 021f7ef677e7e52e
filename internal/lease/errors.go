package lease

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidArgument signals caller misuse, not malformed lease data
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrSourceUnavailable is returned when no candidate lease file could be read
	ErrSourceUnavailable = errors.New("no lease file could be located or read")

	// ErrParse matches any *ParseError
	ErrParse = errors.New("lease parse error")

	ErrFieldCount    = errors.New("wrong number of fields")
	ErrAddressFormat = errors.New("invalid IP or MAC address")
	ErrTimestamp     = errors.New("invalid lease expiry time")
)

// Kind classifies a ParseError
type Kind int

const (
	FieldCount Kind = iota + 1
	AddressFormat
	Timestamp
)

// String returns the kind name
func (k Kind) String() string {
	switch k {
	case FieldCount:
		return "FieldCount"
	case AddressFormat:
		return "AddressFormat"
	case Timestamp:
		return "Timestamp"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

func (k Kind) sentinel() error {
	switch k {
	case FieldCount:
		return ErrFieldCount
	case AddressFormat:
		return ErrAddressFormat
	case Timestamp:
		return ErrTimestamp
	}
	return nil
}

// ParseError describes a lease line that could not be parsed
type ParseError struct {
	Kind Kind
	Line string
	Msg  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: %s in %q", e.Kind, e.Msg, e.Line)
}

// Is lets errors.Is match both ErrParse and the kind's sentinel.
func (e *ParseError) Is(target error) bool {
	if target == ErrParse {
		return true
	}
	s := e.Kind.sentinel()
	return s != nil && target == s
}

func newParseError(kind Kind, line, format string, args ...interface{}) *ParseError {
	return &ParseError{
		Kind: kind,
		Line: line,
		Msg:  fmt.Sprintf(format, args...),
	}
}
