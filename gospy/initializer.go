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
	"reflect"
)

/*
An Initializer installs a working spy into one field of a test fixture.

Given the field's current value it does one of three things:

  - the value is already a proxy: reset its recorded calls and stubs in
    place, keeping the same object, so running a setup routine twice is
    harmless;
  - the value is a plain instance: wrap it as a spy named after the field,
    delegating unstubbed calls to the instance, and write the spy back;
  - the field is empty: construct a fresh instance according to the shape
    of its type, wrap it the same way, and write it back.

Every failure surfaces as a single *InitError carrying the field name and
the underlying cause, so a field is never left holding a non-proxy value
after a successful Initialize.
*/
type Initializer struct {
	factory Factory
	intro   Introspector
	access  FieldAccessor
}

// InitializerOption configures the collaborators of an Initializer.
type InitializerOption func(*Initializer)

// WithFactory substitutes the proxy-creation collaborator.
func WithFactory(f Factory) InitializerOption {
	return func(in *Initializer) { in.factory = f }
}

// WithIntrospector substitutes the type-metadata collaborator.
func WithIntrospector(i Introspector) InitializerOption {
	return func(in *Initializer) { in.intro = i }
}

// WithRegistry is shorthand for an Initializer whose introspection and
// factory both resolve descriptors from reg.
func WithRegistry(t T, reg *Registry) InitializerOption {
	return func(in *Initializer) {
		in.intro = reg
		in.factory = NewFactory(t, reg)
	}
}

// WithFieldAccessor substitutes the field access collaborator.
func WithFieldAccessor(a FieldAccessor) InitializerOption {
	return func(in *Initializer) { in.access = a }
}

// NewInitializer builds an Initializer over the default registry, the
// Double-engine factory and reflective field access.
func NewInitializer(t T, opts ...InitializerOption) *Initializer {
	in := &Initializer{
		factory: NewFactory(t, DefaultRegistry()),
		intro:   DefaultRegistry(),
		access:  reflectAccessor{},
	}
	for _, opt := range opts {
		opt(in)
	}
	return in
}

// Initialize installs a spy into the given field of testInstance. All
// internal failures are rethrown as one *InitError naming the field.
func (in *Initializer) Initialize(testInstance any, field Field) error {
	if err := in.initialize(testInstance, field); err != nil {
		return &InitError{Field: field.Name, Cause: err}
	}
	return nil
}

func (in *Initializer) initialize(testInstance any, field Field) error {
	current, err := in.access.Read(testInstance, field)
	if err != nil {
		return err
	}
	if err := assertNotInterface(current, field.Type); err != nil {
		return err
	}

	if in.factory.IsProxy(current) {
		// The field was spied earlier, e.g. a setup routine ran twice.
		return in.factory.Reset(current)
	}

	var proxy any
	if current != nil {
		proxy, err = in.factory.WrapExisting(reflect.TypeOf(current), current, field.Name, CallsRealMethods())
	} else {
		proxy, err = in.constructNew(testInstance, field)
	}
	if err != nil {
		return err
	}
	return in.access.Write(testInstance, field, proxy)
}

// assertNotInterface rejects spying on a bare interface: there is no real
// method body to delegate to. The runtime type of a live value is never an
// interface, so this only fires for empty fields of interface type.
func assertNotInterface(current any, declared reflect.Type) error {
	t := declared
	if current != nil {
		t = reflect.TypeOf(current)
	}
	if t != nil && t.Kind() == reflect.Interface {
		return &ConfigError{Kind: ErrInterface, Type: t}
	}
	return nil
}

// constructNew builds a brand-new instance to spy on for an empty field,
// branching on the shape of the field's type.
func (in *Initializer) constructNew(testInstance any, field Field) (any, error) {
	desc, err := in.intro.Describe(field.Type)
	if err != nil {
		return nil, err
	}

	switch desc.Shape() {
	case ShapeInterface:
		// Kept for API symmetry: the proxy has no real behaviour to
		// delegate to and delegation fails at call time.
		return in.factory.ConstructAndWrap(field.Type, field.Name, CallsRealMethods(), UseInterfaceOnly())

	case ShapePrivateAbstractNested:
		return nil, &ConfigError{
			Kind:  ErrPrivateAbstractNested,
			Type:  desc.Target,
			Inner: typeName(desc.Target),
			Outer: typeName(desc.Enclosing),
		}

	case ShapeNonStaticNested:
		if it := reflect.TypeOf(testInstance); it == nil || !it.AssignableTo(desc.Enclosing) {
			return nil, &ConfigError{
				Kind:  ErrOuterInstanceMismatch,
				Type:  desc.Target,
				Inner: typeName(desc.Target),
				Outer: typeName(desc.Enclosing),
			}
		}
		return in.factory.ConstructAndWrap(field.Type, field.Name, CallsRealMethods(), UseDeclaredConstructorWithOuter(testInstance))

	default:
		ctor, private, err := desc.noArgConstructor()
		if err != nil {
			return nil, err
		}
		if private {
			// The factory will not touch a private constructor without the
			// capability flag; invoking it directly and wrapping the built
			// instance produces the same proxy through the existing path.
			return in.factory.WrapExisting(desc.Target, ctor(), field.Name, CallsRealMethods())
		}
		return in.factory.ConstructAndWrap(field.Type, field.Name, CallsRealMethods(), UseDeclaredConstructor())
	}
}
