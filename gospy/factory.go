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
	"reflect"
)

// ModeKind selects how ConstructAndWrap obtains an instance to wrap.
type ModeKind int

const (
	// ModeDeclaredConstructor - build through the target's no-arg
	// constructor.
	ModeDeclaredConstructor ModeKind = iota

	// ModeOuterInstance - build through the outer-bound constructor,
	// binding the supplied enclosing instance.
	ModeOuterInstance

	// ModeInterfaceOnly - no backing instance at all, a pure recording
	// proxy over the interface.
	ModeInterfaceOnly
)

// ConstructionMode carries the construction strategy plus the explicit
// allow-private capability. Private construction is never an implicit
// side effect.
type ConstructionMode struct {
	Kind         ModeKind
	Outer        any
	AllowPrivate bool
}

// UseDeclaredConstructor builds via the target's own no-arg constructor.
func UseDeclaredConstructor() ConstructionMode {
	return ConstructionMode{Kind: ModeDeclaredConstructor}
}

// UseDeclaredConstructorWithOuter builds via the outer-bound constructor
// against the given enclosing instance.
func UseDeclaredConstructorWithOuter(outer any) ConstructionMode {
	return ConstructionMode{Kind: ModeOuterInstance, Outer: outer}
}

// UseInterfaceOnly produces a proxy with no backing instance.
func UseInterfaceOnly() ConstructionMode {
	return ConstructionMode{Kind: ModeInterfaceOnly}
}

// AllowingPrivate grants the factory permission to invoke a private
// constructor for this one construction.
func (m ConstructionMode) AllowingPrivate() ConstructionMode {
	m.AllowPrivate = true
	return m
}

/*
Factory is the proxy-creation collaborator of the Initializer: it wraps
existing instances, constructs-and-wraps fresh ones, recognizes proxies and
resets them. The default implementation is backed by the Double engine, and
a test can substitute its own.
*/
type Factory interface {
	WrapExisting(t reflect.Type, instance any, name string, answer Answer) (any, error)
	ConstructAndWrap(t reflect.Type, name string, answer Answer, mode ConstructionMode) (any, error)
	IsProxy(v any) bool
	Reset(v any) error
}

// proxied is how doubles advertise themselves: every wrapper embeds *Double
// and so promotes Controller.
type proxied interface {
	Controller() *Double
}

type doubleFactory struct {
	t        T
	registry *Registry
	configs  []func(*Double)
}

// NewFactory returns the Double-engine Factory. Extra configurators are
// applied to every Double it creates, after the name, target and answer.
func NewFactory(t T, registry *Registry, configs ...func(*Double)) Factory {
	if registry == nil {
		registry = DefaultRegistry()
	}
	return &doubleFactory{t: t, registry: registry, configs: configs}
}

func (f *doubleFactory) WrapExisting(t reflect.Type, instance any, name string, answer Answer) (any, error) {
	desc, err := f.registry.Describe(t)
	if err != nil {
		return nil, err
	}
	return f.wrap(desc, instance, name, answer)
}

func (f *doubleFactory) ConstructAndWrap(t reflect.Type, name string, answer Answer, mode ConstructionMode) (any, error) {
	desc, err := f.registry.Describe(t)
	if err != nil {
		return nil, err
	}

	var instance any
	switch mode.Kind {
	case ModeInterfaceOnly:
		return f.wrap(desc, nil, name, answer)

	case ModeOuterInstance:
		if desc.NewWithOuter == nil {
			return nil, fmt.Errorf("type '%s' has no outer-bound constructor", typeName(desc.Target))
		}
		if ot := reflect.TypeOf(mode.Outer); ot == nil || !ot.AssignableTo(desc.Enclosing) {
			return nil, &ConfigError{
				Kind:  ErrOuterInstanceMismatch,
				Type:  desc.Target,
				Inner: typeName(desc.Target),
				Outer: typeName(desc.Enclosing),
			}
		}
		instance = desc.NewWithOuter(mode.Outer)

	case ModeDeclaredConstructor:
		ctor, private, err := desc.noArgConstructor()
		if err != nil {
			return nil, err
		}
		if private && !mode.AllowPrivate {
			return nil, &ConfigError{Kind: ErrPrivateConstructor, Type: desc.Target}
		}
		instance = ctor()

	default:
		return nil, fmt.Errorf("unknown construction mode %d", mode.Kind)
	}

	if instance == nil {
		return nil, fmt.Errorf("constructor of '%s' produced nil", typeName(desc.Target))
	}
	return f.wrap(desc, instance, name, answer)
}

// wrap builds the engine Double and the typed wrapper around it. instance
// may be nil for a pure interface proxy.
func (f *doubleFactory) wrap(desc *Descriptor, instance any, name string, answer Answer) (any, error) {
	iface := desc.Iface
	if iface == nil && desc.Target != nil && desc.Target.Kind() == reflect.Interface {
		iface = desc.Target
	}
	if iface == nil {
		return nil, &ConfigError{Kind: ErrUnregisteredType, Type: desc.Target}
	}

	configs := []func(*Double){Named(name), WithDefaultAnswer(answer)}
	if instance != nil {
		configs = append(configs, Spying(instance))
	}
	configs = append(configs, f.configs...)

	d := newDoubleOf(f.t, iface, configs...)
	if desc.Wrap == nil {
		if instance != nil {
			return nil, &ConfigError{Kind: ErrUnregisteredType, Type: desc.Target}
		}
		// Pure interface proxy with no registered wrapper: hand back the
		// engine Double itself.
		return d, nil
	}
	return desc.Wrap(d), nil
}

func (f *doubleFactory) IsProxy(v any) bool {
	if v == nil {
		return false
	}
	p, ok := v.(proxied)
	return ok && p.Controller() != nil
}

func (f *doubleFactory) Reset(v any) error {
	p, ok := v.(proxied)
	if !ok || p.Controller() == nil {
		return fmt.Errorf("cannot reset %T: not a proxy", v)
	}
	p.Controller().Reset()
	return nil
}
