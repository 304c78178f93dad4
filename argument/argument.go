package argument

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"
)

// Access is the read/write qualifier of an argument.
type Access string

// Access qualifiers.
const (
	AccessRead  Access = "read"
	AccessWrite Access = "write"
)

// Origin records who created an argument.
type Origin string

// Argument origins.
const (
	// OriginCustom arguments were added by the user and may be removed.
	OriginCustom Origin = "custom"

	// OriginRequired arguments are mandated by the kernel type.
	OriginRequired Origin = "required"
)

// Argument errors.
var (
	ErrRequiredArgument = errors.New("argument: required arguments cannot be removed")
	ErrTypeMismatch     = errors.New("argument: value does not match argument type")
	ErrNotFound         = errors.New("argument: no such argument")
	ErrDuplicateName    = errors.New("argument: name already in use")
	ErrInvalidType      = errors.New("argument: invalid type")
	ErrBindingMismatch  = errors.New("argument: binding not available for type")
)

// Argument is a named, positional kernel parameter.
type Argument struct {
	Index   int
	Name    string
	Type    Type
	Value   Value
	Access  Access
	Origin  Origin
	Binding DataBinding
}

// New returns a user-defined read argument holding the default value of t.
func New(name string, t Type) Argument {
	return Argument{
		Name:   name,
		Type:   t,
		Value:  t.DefaultValue(),
		Access: AccessRead,
		Origin: OriginCustom,
	}
}

// Required returns a kernel-mandated argument. Void arguments carry no value.
func Required(name string, t Type, access Access) Argument {
	a := Argument{Name: name, Type: t, Access: access, Origin: OriginRequired}
	if t != Void {
		a.Value = t.DefaultValue()
	}
	return a
}

// Removable reports whether the user may delete a.
func (a Argument) Removable() bool { return a.Origin != OriginRequired }

// Declaration renders a as it appears in a kernel signature.
func (a Argument) Declaration() string { return a.Type.Spelling() + " " + a.Name }

type jsonArgument struct {
	Index   int             `json:"index"`
	Name    string          `json:"name"`
	Type    Type            `json:"type"`
	Value   json.RawMessage `json:"value,omitempty"`
	Access  Access          `json:"access"`
	Origin  Origin          `json:"origin"`
	Binding DataBinding     `json:"binding,omitempty"`
}

// MarshalJSON implements json.Marshaler.
func (a Argument) MarshalJSON() ([]byte, error) {
	j := jsonArgument{
		Index:   a.Index,
		Name:    a.Name,
		Type:    a.Type,
		Access:  a.Access,
		Origin:  a.Origin,
		Binding: a.Binding,
	}
	if a.Value.IsValid() {
		raw, err := json.Marshal(a.Value)
		if err != nil {
			return nil, err
		}
		j.Value = raw
	}
	return json.Marshal(j)
}

// UnmarshalJSON implements json.Unmarshaler. Sample arguments decode to an
// unresolved placeholder; the owner re-attaches the image.
func (a *Argument) UnmarshalJSON(data []byte) error {
	var j jsonArgument
	if err := json.Unmarshal(data, &j); err != nil {
		return err
	}
	if !j.Type.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidType, string(j.Type))
	}

	out := Argument{
		Index:   j.Index,
		Name:    j.Name,
		Type:    j.Type,
		Access:  j.Access,
		Origin:  j.Origin,
		Binding: j.Binding,
	}
	if out.Access == "" {
		out.Access = AccessRead
	}
	if out.Origin == "" {
		out.Origin = OriginCustom
	}

	switch {
	case j.Type.IsImage():
		out.Value = SampleValue(nil)
	case j.Type == Void:
	default:
		var v Value
		if err := json.Unmarshal(j.Value, &v); err != nil {
			return fmt.Errorf("argument %q: %w", j.Name, err)
		}
		if !v.Compatible(j.Type) {
			return fmt.Errorf("argument %q: %w", j.Name, ErrTypeMismatch)
		}
		out.Value = v
	}

	*a = out
	return nil
}

// MarshalJSON implements json.Marshaler for the keyed value format.
func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.toJSON())
}

// UnmarshalJSON implements json.Unmarshaler. A record without a known key,
// including an encoded sample, fails with ErrUnknownValue.
func (v *Value) UnmarshalJSON(data []byte) error {
	var j jsonValue
	if err := json.Unmarshal(data, &j); err != nil {
		return fmt.Errorf("%w: %w", ErrUnknownValue, err)
	}
	out, err := j.toValue()
	if err != nil {
		return err
	}
	*v = out
	return nil
}

// List is an ordered argument list. Mutators never modify the receiver;
// they return a new list with indices renumbered, so a list that has been
// handed to a renderer stays stable.
type List []Argument

// Values returns the argument values in positional order.
func (l List) Values() []Value {
	out := make([]Value, len(l))
	for i, a := range l {
		out[i] = a.Value
	}
	return out
}

// Lookup returns the argument called name.
func (l List) Lookup(name string) (Argument, bool) {
	i := l.index(name)
	if i < 0 {
		return Argument{}, false
	}
	return l[i], true
}

func (l List) index(name string) int {
	return slices.IndexFunc(l, func(a Argument) bool { return a.Name == name })
}

// Add appends a.
func (l List) Add(a Argument) (List, error) {
	if !a.Type.IsValid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidType, string(a.Type))
	}
	if l.index(a.Name) >= 0 {
		return nil, fmt.Errorf("%w: %q", ErrDuplicateName, a.Name)
	}
	out := append(slices.Clone(l), a)
	return out.renumber(), nil
}

// Remove deletes the argument called name. Required arguments stay.
func (l List) Remove(name string) (List, error) {
	i := l.index(name)
	if i < 0 {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	if !l[i].Removable() {
		return nil, fmt.Errorf("%w: %q", ErrRequiredArgument, name)
	}
	out := slices.Delete(slices.Clone(l), i, i+1)
	return out.renumber(), nil
}

// Rename changes an argument's name.
func (l List) Rename(name, newName string) (List, error) {
	i := l.index(name)
	if i < 0 {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	if name != newName && l.index(newName) >= 0 {
		return nil, fmt.Errorf("%w: %q", ErrDuplicateName, newName)
	}
	out := slices.Clone(l)
	out[i].Name = newName
	return out, nil
}

// SetValue replaces the value of the argument called name.
func (l List) SetValue(name string, v Value) (List, error) {
	i := l.index(name)
	if i < 0 {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	if !v.Compatible(l[i].Type) {
		return nil, fmt.Errorf("%w: %s into %s %q", ErrTypeMismatch, v.Type(), l[i].Type, name)
	}
	out := slices.Clone(l)
	out[i].Value = v
	return out, nil
}

// SetBinding attaches a data binding to the argument called name.
// BindingNone detaches it.
func (l List) SetBinding(name string, b DataBinding) (List, error) {
	i := l.index(name)
	if i < 0 {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	if b != BindingNone && !slices.Contains(l[i].Type.AvailableDataBindings(), b) {
		return nil, fmt.Errorf("%w: %s on %s", ErrBindingMismatch, b, l[i].Type)
	}
	out := slices.Clone(l)
	out[i].Binding = b
	return out, nil
}

// Bound returns the arguments driven by b.
func (l List) Bound(b DataBinding) List {
	var out List
	for _, a := range l {
		if a.Binding == b && b != BindingNone {
			out = append(out, a)
		}
	}
	return out
}

func (l List) renumber() List {
	for i := range l {
		l[i].Index = i
	}
	return l
}
