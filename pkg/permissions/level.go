package permissions

import (
	"database/sql/driver"
	"fmt"
	"strings"
)

// Level is an ordered permission level. The zero value is invalid.
type Level int

const (
	Read Level = iota + 1
	Write
	ReadWrite
)

var levelNames = map[Level]string{
	Read:      "read",
	Write:     "write",
	ReadWrite: "read_write",
}

// AllLevels lists every valid level in ascending order
func AllLevels() []Level {
	return []Level{Read, Write, ReadWrite}
}

// Valid reports whether l is one of the declared levels
func (l Level) Valid() bool {
	_, ok := levelNames[l]
	return ok
}

// Satisfies reports whether a grant at level l meets a requirement of level required
func (l Level) Satisfies(required Level) bool {
	return l.Valid() && required.Valid() && l >= required
}

func (l Level) String() string {
	if name, ok := levelNames[l]; ok {
		return name
	}
	return fmt.Sprintf("level(%d)", int(l))
}

// ParseLevel accepts the canonical names plus a few common spellings
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "read", "r":
		return Read, nil
	case "write", "w":
		return Write, nil
	case "read_write", "readwrite", "read-write", "rw":
		return ReadWrite, nil
	}
	return 0, fmt.Errorf("unknown permission level %q", s)
}

func (l Level) MarshalText() ([]byte, error) {
	if !l.Valid() {
		return nil, fmt.Errorf("invalid permission level %d", int(l))
	}
	return []byte(l.String()), nil
}

func (l *Level) UnmarshalText(text []byte) error {
	parsed, err := ParseLevel(string(text))
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}

// Value stores the level as its canonical name
func (l Level) Value() (driver.Value, error) {
	if !l.Valid() {
		return nil, fmt.Errorf("invalid permission level %d", int(l))
	}
	return l.String(), nil
}

// Scan reads a level stored by Value
func (l *Level) Scan(src interface{}) error {
	switch v := src.(type) {
	case string:
		return l.UnmarshalText([]byte(v))
	case []byte:
		return l.UnmarshalText(v)
	default:
		return fmt.Errorf("cannot scan %T into permission level", src)
	}
}
