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

// ErrorKind identifies the configuration problems that can prevent a spy
// from being initialized. Callers branch on the kind, the message text is
// for humans.
type ErrorKind int

const (
	// ErrInterface - the field's type is an interface with no method bodies
	// to delegate to.
	ErrInterface ErrorKind = iota + 1

	// ErrPrivateAbstractNested - the target is an unexported abstract type
	// enclosed by another type and can never be constructed here.
	ErrPrivateAbstractNested

	// ErrOuterInstanceMismatch - the target needs an enclosing instance and
	// the test fixture is not one.
	ErrOuterInstanceMismatch

	// ErrMissingConstructor - the target declares that its zero value is not
	// usable and registers no no-arg constructor.
	ErrMissingConstructor

	// ErrUnregisteredType - no double has been registered for the target, so
	// there is no wrapper to stand in for it.
	ErrUnregisteredType

	// ErrPrivateConstructor - the factory was asked to construct through a
	// private constructor without the allow-private capability.
	ErrPrivateConstructor
)

// ConfigError is a terminal, user-facing setup failure. Inner and Outer are
// only populated for the nested-type kinds.
type ConfigError struct {
	Kind  ErrorKind
	Type  reflect.Type
	Inner string
	Outer string
}

func (e *ConfigError) Error() string {
	switch e.Kind {
	case ErrInterface:
		return fmt.Sprintf("type '%s' is an interface and cannot be spied on", typeName(e.Type))
	case ErrPrivateAbstractNested:
		return fmt.Sprintf("cannot initialize a spy for private abstract nested type '%s' enclosed by '%s': augment the visibility of this type or narrow the field to a concrete one", e.Inner, e.Outer)
	case ErrOuterInstanceMismatch:
		return fmt.Sprintf("nested type '%s' can only be spied from an instance of its enclosing type '%s'", e.Inner, e.Outer)
	case ErrMissingConstructor:
		return fmt.Sprintf("type '%s' needs a no-arg constructor to be spied on: register one, or mark its zero value usable", typeName(e.Type))
	case ErrUnregisteredType:
		return fmt.Sprintf("no double registered for type '%s'", typeName(e.Type))
	case ErrPrivateConstructor:
		return fmt.Sprintf("the no-arg constructor of '%s' is private: construction through the factory requires the allow-private capability", typeName(e.Type))
	default:
		return fmt.Sprintf("invalid spy configuration for type '%s'", typeName(e.Type))
	}
}

// InitError is the single error type surfaced by Initializer.Initialize. It
// carries the field name and wraps the underlying cause, whatever its kind.
type InitError struct {
	Field string
	Cause error
}

func (e *InitError) Error() string {
	return fmt.Sprintf("unable to initialize spy field '%s': %v", e.Field, e.Cause)
}

func (e *InitError) Unwrap() error { return e.Cause }

func typeName(t reflect.Type) string {
	if t == nil {
		return "<nil>"
	}
	if t.Kind() == reflect.Ptr {
		if name := t.Elem().Name(); name != "" {
			return name
		}
	}
	if name := t.Name(); name != "" {
		return name
	}
	return t.String()
}
