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

// Boxed default values for the primitive kinds. Named types of these kinds
// still need reflect.Zero so the boxed value carries the right dynamic type.
var kindDefaults = map[reflect.Kind]any{
	reflect.Bool:       false,
	reflect.Int:        int(0),
	reflect.Int8:       int8(0),
	reflect.Int16:      int16(0),
	reflect.Int32:      int32(0),
	reflect.Int64:      int64(0),
	reflect.Uint:       uint(0),
	reflect.Uint8:      uint8(0),
	reflect.Uint16:     uint16(0),
	reflect.Uint32:     uint32(0),
	reflect.Uint64:     uint64(0),
	reflect.Uintptr:    uintptr(0),
	reflect.Float32:    float32(0),
	reflect.Float64:    float64(0),
	reflect.Complex64:  complex64(0),
	reflect.Complex128: complex128(0),
	reflect.String:     "",
}

// IsPrimitive reports whether t is one of the builtin scalar kinds
// (booleans, numerics, strings).
func IsPrimitive(t reflect.Type) bool {
	if t == nil {
		return false
	}
	_, ok := kindDefaults[t.Kind()]
	return ok
}

// DefaultValue returns the boxed zero value for t.
//
// Unnamed primitive kinds are served from a fixed table, every other type
// (including named primitives, so the dynamic type is preserved) goes via
// reflect.Zero. A nil type yields nil, which is the zero value of any
// interface.
func DefaultValue(t reflect.Type) any {
	if t == nil {
		return nil
	}
	if v, ok := kindDefaults[t.Kind()]; ok && reflect.TypeOf(v) == t {
		return v
	}
	return reflect.Zero(t).Interface()
}

// DefaultValueForKind returns the boxed default for a primitive kind, or nil
// for kinds that have no scalar default.
func DefaultValueForKind(k reflect.Kind) any {
	return kindDefaults[k]
}

// defaultOutputsOf builds the boxed zero return values for a method type.
func defaultOutputsOf(methodType reflect.Type) []any {
	if methodType.NumOut() == 0 {
		return nil
	}
	outs := make([]any, methodType.NumOut())
	for i := 0; i < methodType.NumOut(); i++ {
		outs[i] = DefaultValue(methodType.Out(i))
	}
	return outs
}
