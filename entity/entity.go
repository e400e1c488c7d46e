// Package entity defines the closed set of lab-managed entity types and the
// ownership read model the engine resolves owners from.
package entity

import "fmt"

// Type identifies a kind of lab-managed record.
type Type string

// The full set of entity types the engine can authorize against.
const (
	TypeBucket   Type = "bucket"
	TypeStudy    Type = "study"
	TypeTask     Type = "task"
	TypeIdea     Type = "idea"
	TypeDeadline Type = "deadline"
	TypeLab      Type = "lab"
	TypeUser     Type = "user"
)

// All returns every defined entity type.
func All() []Type {
	return []Type{TypeBucket, TypeStudy, TypeTask, TypeIdea, TypeDeadline, TypeLab, TypeUser}
}

// Valid reports whether t is one of the defined entity types.
func (t Type) Valid() bool {
	switch t {
	case TypeBucket, TypeStudy, TypeTask, TypeIdea, TypeDeadline, TypeLab, TypeUser:
		return true
	default:
		return false
	}
}

// String returns the wire representation of the type.
func (t Type) String() string { return string(t) }

// OwnerField returns the name of the field on the stored record that
// identifies its owner. Ideas record an owner via their proposer; every
// other type records its creator.
func (t Type) OwnerField() string {
	if t == TypeIdea {
		return "proposed_by"
	}
	return "created_by"
}

// Parse converts a wire string into a Type. Returns an error for anything
// outside the closed set.
func Parse(s string) (Type, error) {
	t := Type(s)
	if !t.Valid() {
		return "", fmt.Errorf("entity: unknown type %q", s)
	}
	return t, nil
}

// Ref identifies a single entity instance.
type Ref struct {
	Type Type   `json:"type"`
	ID   string `json:"id"`
}

// String returns "type:id".
func (r Ref) String() string { return string(r.Type) + ":" + r.ID }
