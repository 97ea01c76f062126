package store

import "fmt"

// Mode selects how a file is opened.
type Mode int

const (
	ReadOnly        Mode = iota // file must exist
	ReadWrite                   // file must exist
	Create                      // create, truncate if exists
	CreateExclusive             // create, fail if exists
	Append                      // read/write if exists, create otherwise
)

func (m Mode) String() string {
	switch m {
	case ReadOnly:
		return "read-only"
	case ReadWrite:
		return "read-write"
	case Create:
		return "create"
	case CreateExclusive:
		return "create-exclusive"
	case Append:
		return "append"
	}
	return fmt.Sprintf("mode(%d)", int(m))
}

// Writable reports whether the mode allows modification.
func (m Mode) Writable() bool {
	return m != ReadOnly
}
