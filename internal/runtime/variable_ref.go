package runtime

import (
	"strconv"
	"strings"
)

// VariableRef is the parsed form of a scoped variable identifier:
//
//	NAME             -> test-level scope
//	ITEM.NAME        -> first occurrence of ITEM
//	ITEM.n.NAME      -> n-th occurrence of ITEM, 1-based
//
// Sequence is kept 1-based as in the address syntax; 0 means absent.
type VariableRef struct {
	Prefix   string
	Name     string
	Sequence int
}

// Global reports whether the reference addresses the test-level scope.
func (r VariableRef) Global() bool { return r.Prefix == "" }

// OccurrenceIndex returns the 0-based occurrence the reference addresses.
// An absent sequence number defaults to the first occurrence.
func (r VariableRef) OccurrenceIndex() int {
	if r.Sequence == 0 {
		return 0
	}
	return r.Sequence - 1
}

// String renders the reference back to its address syntax.
func (r VariableRef) String() string {
	switch {
	case r.Prefix == "":
		return r.Name
	case r.Sequence == 0:
		return r.Prefix + "." + r.Name
	default:
		return r.Prefix + "." + strconv.Itoa(r.Sequence) + "." + r.Name
	}
}

// ParseVariableRef parses a scoped variable identifier.
func ParseVariableRef(s string) (VariableRef, error) {
	parts := strings.Split(s, ".")
	switch len(parts) {
	case 1:
		if !validIdentifier(parts[0]) {
			return VariableRef{}, &IdentifierError{Identifier: s, Reason: "malformed identifier"}
		}
		return VariableRef{Name: parts[0]}, nil
	case 2:
		if !validIdentifier(parts[0]) || !validIdentifier(parts[1]) {
			return VariableRef{}, &IdentifierError{Identifier: s, Reason: "malformed prefixed identifier"}
		}
		return VariableRef{Prefix: parts[0], Name: parts[1]}, nil
	case 3:
		seq, err := strconv.Atoi(parts[1])
		if err != nil || seq < 1 {
			return VariableRef{}, &IdentifierError{Identifier: s, Reason: "sequence number must be a positive integer"}
		}
		if !validIdentifier(parts[0]) || !validIdentifier(parts[2]) {
			return VariableRef{}, &IdentifierError{Identifier: s, Reason: "malformed prefixed identifier"}
		}
		return VariableRef{Prefix: parts[0], Sequence: seq, Name: parts[2]}, nil
	}
	return VariableRef{}, &IdentifierError{Identifier: s, Reason: "too many dot-separated parts"}
}

// validIdentifier checks the QTI identifier shape: a letter or underscore
// followed by letters, digits, underscores or hyphens.
func validIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r == '_':
		case i > 0 && (r >= '0' && r <= '9' || r == '-'):
		default:
			return false
		}
	}
	return true
}
