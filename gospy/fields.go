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
	"unsafe"
)

// Field identifies one spy-eligible slot on a test fixture: its name, its
// declared type and where it sits in the (possibly embedded) struct.
type Field struct {
	Name  string
	Type  reflect.Type
	Index []int
}

// FieldAccessor reads and writes fixture fields. Failures carry enough
// context to be actionable without a stack trace.
type FieldAccessor interface {
	Read(instance any, f Field) (any, error)
	Write(instance any, f Field, value any) error
}

// reflectAccessor is the default FieldAccessor. Unexported fields are
// reached through their address, the Go equivalent of forcing an
// inaccessible member accessible. That access is only possible on an
// addressable fixture, which InitSpies guarantees by requiring a pointer.
type reflectAccessor struct{}

func (reflectAccessor) Read(instance any, f Field) (any, error) {
	fv, err := fieldValue(instance, f)
	if err != nil {
		return nil, err
	}
	if !fv.CanInterface() {
		if !fv.CanAddr() {
			return nil, fmt.Errorf("cannot read unexported unaddressable field '%s'", f.Name)
		}
		fv = reflect.NewAt(fv.Type(), unsafe.Pointer(fv.UnsafeAddr())).Elem()
	}
	switch fv.Kind() {
	case reflect.Ptr, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		if fv.IsNil() {
			return nil, nil
		}
	}
	return fv.Interface(), nil
}

func (reflectAccessor) Write(instance any, f Field, value any) error {
	fv, err := fieldValue(instance, f)
	if err != nil {
		return err
	}
	vt := reflect.TypeOf(value)
	if vt == nil || !vt.AssignableTo(fv.Type()) {
		return fmt.Errorf("cannot assign %T to field '%s' of type %v", value, f.Name, fv.Type())
	}
	if !fv.CanSet() {
		if !fv.CanAddr() {
			return fmt.Errorf("cannot write unexported unaddressable field '%s'", f.Name)
		}
		fv = reflect.NewAt(fv.Type(), unsafe.Pointer(fv.UnsafeAddr())).Elem()
	}
	fv.Set(reflect.ValueOf(value))
	return nil
}

func fieldValue(instance any, f Field) (reflect.Value, error) {
	v := reflect.ValueOf(instance)
	if !v.IsValid() || v.Kind() != reflect.Ptr || v.IsNil() || v.Elem().Kind() != reflect.Struct {
		return reflect.Value{}, fmt.Errorf("fixture for field '%s' must be a non-nil pointer to struct, have %T", f.Name, instance)
	}
	if len(f.Index) == 0 {
		return reflect.Value{}, fmt.Errorf("field '%s' has no index path", f.Name)
	}
	fv := v.Elem()
	for _, i := range f.Index {
		if fv.Kind() == reflect.Ptr {
			if fv.IsNil() {
				return reflect.Value{}, fmt.Errorf("nil embedded struct on the path to field '%s'", f.Name)
			}
			fv = fv.Elem()
		}
		if fv.Kind() != reflect.Struct || i >= fv.NumField() {
			return reflect.Value{}, fmt.Errorf("field '%s' index path does not resolve in %T", f.Name, instance)
		}
		fv = fv.Field(i)
	}
	return fv, nil
}
