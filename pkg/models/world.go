package models

import (
	"fmt"
	"strconv"
)

// Owners that are not agents.
const (
	OwnerWorld = "world"
	OwnerUser  = "user"
)

// ObjectRef identifies a world object.
type ObjectRef string

// WorldObject is one thing in the world model.
type WorldObject struct {
	ID          ObjectRef         `yaml:"id" json:"id"`
	Name        string            `yaml:"name" json:"name"`
	Created     uint64            `yaml:"created" json:"created"`
	Attributes  map[string]string `yaml:"attributes,omitempty" json:"attributes,omitempty"`
	Owner       string            `yaml:"owner" json:"owner"`
	IsContainer bool              `yaml:"is_container,omitempty" json:"is_container,omitempty"`
	IsOpen      bool              `yaml:"is_open,omitempty" json:"is_open,omitempty"`
	Inside      ObjectRef         `yaml:"inside,omitempty" json:"inside,omitempty"`
}

// Attribute exposes an object to predicate evaluation. Structural fields
// are addressable alongside free-form attributes.
func (o WorldObject) Attribute(name string) (string, bool) {
	switch name {
	case "id":
		return string(o.ID), true
	case "name":
		return o.Name, true
	case "owner":
		return o.Owner, true
	case "inside":
		return string(o.Inside), o.Inside != ""
	case "is_container":
		return strconv.FormatBool(o.IsContainer), true
	case "is_open":
		return strconv.FormatBool(o.IsOpen), true
	}
	v, ok := o.Attributes[name]
	return v, ok
}

// Blueprint is an object the world can create on request.
type Blueprint struct {
	Name        string            `yaml:"name" json:"name"`
	Attributes  map[string]string `yaml:"attributes,omitempty" json:"attributes,omitempty"`
	IsContainer bool              `yaml:"is_container,omitempty" json:"is_container,omitempty"`
}

// Attribute exposes a blueprint to predicate evaluation.
func (b Blueprint) Attribute(name string) (string, bool) {
	switch name {
	case "name":
		return b.Name, true
	case "is_container":
		return strconv.FormatBool(b.IsContainer), true
	}
	v, ok := b.Attributes[name]
	return v, ok
}

// OperationKind enumerates world mutations.
type OperationKind string

const (
	OpTake    OperationKind = "take"
	OpGive    OperationKind = "give"
	OpOpen    OperationKind = "open"
	OpClose   OperationKind = "close"
	OpCreate  OperationKind = "create"
	OpDestroy OperationKind = "destroy"
	OpPutIn   OperationKind = "put_in"
)

// Operation is a single mutation request.
type Operation struct {
	Kind      OperationKind `yaml:"kind" json:"kind"`
	Actor     string        `yaml:"actor" json:"actor"`
	Blueprint string        `yaml:"blueprint,omitempty" json:"blueprint,omitempty"`
	Recipient string        `yaml:"recipient,omitempty" json:"recipient,omitempty"`
	Container ObjectRef     `yaml:"container,omitempty" json:"container,omitempty"`
}

// MutationResult describes a successful mutation.
type MutationResult struct {
	Ref     ObjectRef `json:"ref"`
	Changed bool      `json:"changed"`
}

// MutationErrorKind is the structured reason a mutation was refused.
type MutationErrorKind string

const (
	MutationNotFound          MutationErrorKind = "not_found"
	MutationPreconditionUnmet MutationErrorKind = "precondition_unmet"
	MutationPermissionDenied  MutationErrorKind = "permission_denied"
)

// WorldMutationError reports a refused mutation.
type WorldMutationError struct {
	Kind   MutationErrorKind
	Op     OperationKind
	Ref    ObjectRef
	Detail string
}

func (e *WorldMutationError) Error() string {
	if e.Ref == "" {
		return fmt.Sprintf("%s: %s: %s", e.Op, e.Kind, e.Detail)
	}
	return fmt.Sprintf("%s %s: %s: %s", e.Op, e.Ref, e.Kind, e.Detail)
}
