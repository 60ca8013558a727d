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

// TagKey is the struct tag consulted by InitSpies.
const TagKey = "gospy"

const tagSpy = "spy"

/*
InitSpies installs spies into every field of fixture tagged `gospy:"spy"`.

	type cartFixture struct {
		Cart  *CartDouble  `gospy:"spy"` // fresh instance, constructed and wrapped
		Clock TimeSource   `gospy:"spy"` // pre-set instance, wrapped in place
	}

	func TestCheckout(t *testing.T) {
		fix := &cartFixture{Clock: fakeClock}
		gospy.InitSpies(t, fix)
		...
	}

fixture must be a non-nil pointer to struct. Embedded structs are walked, so
tags on a shared base fixture are honoured. The first field that cannot be
initialized fails the test fatally with the field name and cause; running
InitSpies again on an already initialized fixture resets the existing spies
instead of replacing them.
*/
func InitSpies(t T, fixture any, opts ...InitializerOption) {
	t.Helper()
	if err := initSpies(t, fixture, opts...); err != nil {
		t.Fatalf("%v", err)
	}
}

func initSpies(t T, fixture any, opts ...InitializerOption) error {
	fields, err := spyFields(fixture)
	if err != nil {
		return err
	}
	in := NewInitializer(t, opts...)
	for _, f := range fields {
		if err := in.Initialize(fixture, f); err != nil {
			return err
		}
	}
	return nil
}

// spyFields collects the tagged fields of fixture, recursing into embedded
// structs the way an inherited fixture would contribute fields.
func spyFields(fixture any) ([]Field, error) {
	v := reflect.ValueOf(fixture)
	if !v.IsValid() || v.Kind() != reflect.Ptr || v.IsNil() || v.Elem().Kind() != reflect.Struct {
		return nil, fmt.Errorf("InitSpies needs a non-nil pointer to a struct fixture, have %T", fixture)
	}
	return collectSpyFields(v.Elem().Type(), nil), nil
}

func collectSpyFields(st reflect.Type, prefix []int) []Field {
	var fields []Field
	for i := 0; i < st.NumField(); i++ {
		sf := st.Field(i)
		index := append(append([]int(nil), prefix...), i)

		if sf.Anonymous {
			et := sf.Type
			if et.Kind() == reflect.Ptr {
				et = et.Elem()
			}
			if et.Kind() == reflect.Struct && sf.Tag.Get(TagKey) == "" {
				fields = append(fields, collectSpyFields(et, index)...)
				continue
			}
		}

		if sf.Tag.Get(TagKey) != tagSpy {
			continue
		}
		fields = append(fields, Field{Name: sf.Name, Type: sf.Type, Index: index})
	}
	return fields
}
