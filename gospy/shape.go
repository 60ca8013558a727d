/*
 * Copyright 2020 grant@lastweekend.com.au
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package gospy

import (
	"fmt"
	"go/token"
	"reflect"
	"sync"
)

// Shape partitions spy targets by how (or whether) a fresh instance can be
// constructed. It is computed once from a Descriptor and then branched on
// with ordinary control flow.
type Shape int

const (
	// ShapeConcrete - a plain constructible type, possibly a static nested
	// one; built through its no-arg constructor.
	ShapeConcrete Shape = iota

	// ShapeInterface - no method bodies to delegate to.
	ShapeInterface

	// ShapePrivateAbstractNested - unexported, abstract and enclosed by
	// another type; never constructible from a test.
	ShapePrivateAbstractNested

	// ShapeNonStaticNested - constructible only against an instance of its
	// enclosing type.
	ShapeNonStaticNested
)

func (s Shape) String() string {
	switch s {
	case ShapeConcrete:
		return "concrete"
	case ShapeInterface:
		return "interface"
	case ShapePrivateAbstractNested:
		return "private abstract nested"
	case ShapeNonStaticNested:
		return "non-static nested"
	default:
		return fmt.Sprintf("Shape(%d)", int(s))
	}
}

/*
A Descriptor tells the framework how to build and wrap instances of one spy
target.

Go has no reflective constructors, nested classes or abstract classes, so
the equivalents are declared here instead of discovered:

  - New is the no-arg constructor. Types whose zero value is usable can set
    ZeroValue instead and be built via reflect.New.
  - PrivateNew marks New as not part of the exported construction surface
    (an unexported constructor func); the factory refuses it unless the
    allow-private capability is passed, the initializer invokes it directly.
  - NewWithOuter is the constructor of a type that cannot exist without its
    owner, the moral equivalent of a non-static nested type. Enclosing names
    the owner type.
  - Abstract marks a type that is incomplete on its own, the Go idiom being
    a struct embedding a nil interface.
*/
type Descriptor struct {
	// Target is the dynamic type spied instances have, e.g. *ShoppingCart.
	Target reflect.Type

	// Iface is the collaborator interface whose methods the double proxies.
	Iface reflect.Type

	// Wrapper is the registered double type, e.g. *ShoppingCartDouble.
	// Spy fields are declared either as Wrapper or as Iface.
	Wrapper reflect.Type

	// Wrap builds the typed wrapper around an engine Double.
	Wrap func(*Double) any

	Abstract  bool
	Private   bool
	Enclosing reflect.Type

	New          func() any
	PrivateNew   bool
	NewWithOuter func(outer any) any

	// ZeroValue permits construction via reflect.New when New is absent.
	ZeroValue bool
}

// Shape computes which construction branch applies to this target.
func (d *Descriptor) Shape() Shape {
	switch {
	case d.Target != nil && d.Target.Kind() == reflect.Interface:
		return ShapeInterface
	case d.private() && d.Abstract && d.Enclosing != nil:
		return ShapePrivateAbstractNested
	case d.NewWithOuter != nil:
		return ShapeNonStaticNested
	default:
		return ShapeConcrete
	}
}

func (d *Descriptor) private() bool {
	if d.Private {
		return true
	}
	return d.Target != nil && typeName(d.Target) != "" && !token.IsExported(typeName(d.Target))
}

// noArgConstructor resolves the constructor for the concrete branch. The
// bool reports whether the constructor is private and must be invoked
// directly rather than through the factory.
func (d *Descriptor) noArgConstructor() (func() any, bool, error) {
	if d.New != nil {
		return d.New, d.PrivateNew, nil
	}
	if d.ZeroValue && d.Target != nil {
		t := d.Target
		if t.Kind() == reflect.Ptr {
			elem := t.Elem()
			return func() any { return reflect.New(elem).Interface() }, false, nil
		}
		return func() any { return reflect.New(t).Elem().Interface() }, false, nil
	}
	return nil, false, &ConfigError{Kind: ErrMissingConstructor, Type: d.Target}
}

func (d *Descriptor) validate() error {
	if d.Target == nil {
		return fmt.Errorf("descriptor needs a Target type")
	}
	if d.NewWithOuter != nil && d.Enclosing == nil {
		return fmt.Errorf("descriptor for %s has an outer-bound constructor but no Enclosing type", typeName(d.Target))
	}
	return nil
}

// An Introspector supplies type metadata to the Initializer. The default is
// a Registry, tests may inject their own.
type Introspector interface {
	Describe(t reflect.Type) (*Descriptor, error)
}

// Registry indexes Descriptors by target, wrapper and interface type.
type Registry struct {
	mu    sync.RWMutex
	descs map[reflect.Type]*Descriptor
}

func NewRegistry() *Registry {
	return &Registry{descs: make(map[reflect.Type]*Descriptor)}
}

// Register makes desc discoverable via its Target, Wrapper and Iface types.
// Later registrations for the same type win, which lets a test override a
// generated descriptor.
func (r *Registry) Register(desc Descriptor) error {
	if err := desc.validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	d := &desc
	r.descs[d.Target] = d
	if d.Wrapper != nil {
		r.descs[d.Wrapper] = d
	}
	if d.Iface != nil {
		r.descs[d.Iface] = d
	}
	return nil
}

/*
Describe resolves the Descriptor for t.

Unregistered interfaces synthesize an interface-shaped descriptor so that a
bare interface field still produces the canonical "cannot be spied on"
failure. Unregistered struct (or pointer-to-struct) types synthesize a
concrete zero-value descriptor; wrapping such a type still requires a
registered wrapper and fails later with ErrUnregisteredType.
*/
func (r *Registry) Describe(t reflect.Type) (*Descriptor, error) {
	if t == nil {
		return nil, fmt.Errorf("cannot describe a nil type")
	}
	r.mu.RLock()
	d, ok := r.descs[t]
	r.mu.RUnlock()
	if ok {
		return d, nil
	}

	switch {
	case t.Kind() == reflect.Interface:
		return &Descriptor{Target: t}, nil
	case t.Kind() == reflect.Struct,
		t.Kind() == reflect.Ptr && t.Elem().Kind() == reflect.Struct:
		return &Descriptor{Target: t, ZeroValue: true}, nil
	default:
		return nil, &ConfigError{Kind: ErrUnregisteredType, Type: t}
	}
}

var defaultRegistry = NewRegistry()

// DefaultRegistry is the process-wide registry that generated doubles
// register themselves with from their init functions.
func DefaultRegistry() *Registry {
	return defaultRegistry
}

// Register adds desc to the default registry, panicking on a malformed
// descriptor since registration runs from generated init functions.
func Register(desc Descriptor) {
	if err := defaultRegistry.Register(desc); err != nil {
		panic(err)
	}
}
