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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReflectAccessor_ReadWrite(t *testing.T) {
	access := reflectAccessor{}

	type fixture struct {
		Greeter greeter
		Count   int
	}
	fix := &fixture{}
	greeterF := Field{Name: "Greeter", Type: reflect.TypeOf((*greeter)(nil)).Elem(), Index: []int{0}}
	countF := Field{Name: "Count", Type: reflect.TypeOf(0), Index: []int{1}}

	//A nil interface reads as an untyped nil.
	v, err := access.Read(fix, greeterF)
	require.NoError(t, err)
	assert.Nil(t, v)

	//Non-nilable kinds read their zero value.
	v, err = access.Read(fix, countF)
	require.NoError(t, err)
	assert.Equal(t, 0, v)

	instance := &realGreeter{salutation: "hola"}
	require.NoError(t, access.Write(fix, greeterF, instance))
	v, err = access.Read(fix, greeterF)
	require.NoError(t, err)
	assert.Same(t, instance, v)
}

func TestReflectAccessor_ReachesUnexportedFields(t *testing.T) {
	access := reflectAccessor{}

	type fixture struct {
		greeter greeter
	}
	fix := &fixture{}
	f := Field{Name: "greeter", Type: reflect.TypeOf((*greeter)(nil)).Elem(), Index: []int{0}}

	v, err := access.Read(fix, f)
	require.NoError(t, err)
	assert.Nil(t, v)

	instance := &realGreeter{}
	require.NoError(t, access.Write(fix, f, instance))
	assert.Same(t, instance, fix.greeter)
}

func TestReflectAccessor_WalksEmbeddedStructs(t *testing.T) {
	access := reflectAccessor{}

	type base struct {
		Greeter greeter
	}
	type fixture struct {
		base
		Other int
	}
	fix := &fixture{}
	f := Field{Name: "Greeter", Type: reflect.TypeOf((*greeter)(nil)).Elem(), Index: []int{0, 0}}

	instance := &realGreeter{}
	require.NoError(t, access.Write(fix, f, instance))
	assert.Same(t, instance, fix.base.Greeter)
}

func TestReflectAccessor_FailsOnNilEmbeddedPointer(t *testing.T) {
	access := reflectAccessor{}

	type base struct {
		Greeter greeter
	}
	type fixture struct {
		*base
	}
	f := Field{Name: "Greeter", Type: reflect.TypeOf((*greeter)(nil)).Elem(), Index: []int{0, 0}}

	_, err := access.Read(&fixture{}, f)
	assert.ErrorContains(t, err, "nil embedded struct")
}

func TestReflectAccessor_WriteRejectsUnassignableValues(t *testing.T) {
	access := reflectAccessor{}

	type fixture struct {
		Count int
	}
	f := Field{Name: "Count", Type: reflect.TypeOf(0), Index: []int{0}}

	err := access.Write(&fixture{}, f, "not an int")
	assert.ErrorContains(t, err, "cannot assign")

	err = access.Write(&fixture{}, f, nil)
	assert.ErrorContains(t, err, "cannot assign")
}

func TestReflectAccessor_NeedsAPointerToStruct(t *testing.T) {
	access := reflectAccessor{}
	f := Field{Name: "Greeter", Type: reflect.TypeOf((*greeter)(nil)).Elem(), Index: []int{0}}

	for _, fixture := range []any{nil, 42, struct{ Greeter greeter }{}, (*greeterFixture)(nil)} {
		_, err := access.Read(fixture, f)
		assert.ErrorContains(t, err, "non-nil pointer to struct", "fixture %T", fixture)
	}
}

func TestReflectAccessor_FailsOnBadIndexPath(t *testing.T) {
	access := reflectAccessor{}

	_, err := access.Read(&greeterFixture{}, Field{Name: "Greeter", Type: greeterField.Type})
	assert.ErrorContains(t, err, "no index path")

	_, err = access.Read(&greeterFixture{}, Field{Name: "Greeter", Type: greeterField.Type, Index: []int{5}})
	assert.ErrorContains(t, err, "does not resolve")
}
