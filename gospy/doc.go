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

/*
Package gospy is a spy-capable test double framework for Go.

The framework creates Double implementations of an interface which can be
substituted for the real thing during tests. A Double may wrap a real
backing instance, in which case it is a Spy: unstubbed calls execute the
real implementation while still being recorded for verification. Interface
methods can individually be Stubbed, Mocked, Spied upon or Faked as
required.

Stubs, Mocks, Spies, Fakes

See the canonical sources...

* http://xunitpatterns.com/Test%20Double.html

* https://martinfowler.com/articles/mocksArentStubs.html

Spy fields

The usual entry point is InitSpies, which installs spies into the tagged
fields of a test fixture. A field already holding an instance gets that
instance wrapped, an empty field gets a freshly constructed instance, and a
field that already holds a spy is reset in place so running setup twice is
harmless. The spy takes the field's name as its display name.

 package examples

 import (
	. "github.com/lwoggardner/gospy/gospy" //Note the dot import which assists with readability
	"testing"
 )

 type checkoutFixture struct {
	Cart *CartDouble `gospy:"spy"`
 }

 func Test_SpyField(t *testing.T) {
	fix := &checkoutFixture{}
	InitSpies(t, fix)

	// Exercise the system under test substituting fix.Cart for the real
	// cart. Unstubbed methods run the real implementation.
	// ...

	// Verify recorded calls
	fix.Cart.Controller().Spy("Add").Expect(Twice())
 }

Doubles can also be built directly, and behave exactly as before.

A Stub provides specific return values for a matching call to the method.

 func Test_Stub(t *testing.T) {
	d := NewAPIDouble(t)

	d.Stub("SomeQuery").Matching(Args(Eql("test"))).Returning(Values(Results{"result"}, nil))

	// Exercise and verify...
 }

A Mock is a Stub with an up-front expectation for how many times it will be
called.

 func Test_Mock(t *testing.T) {
	d := NewAPIDouble(t)
	defer d.Verify()

	d.Mock("SomeQuery").Matching(Args(Eql("test"))).Returning(Values(Results{"result"}, nil)).Expect(Exactly(3))
	d.Mock("OtherMethod").Expect(Never())

	//Exercise...
 }

A Spy is a record of all calls made to a method which can be verified after
exercising the system under test.

 func Test_Spy(t *testing.T) {
	d := NewAPIDouble(t)

	spy := d.Spy("SomeQuery").Returning(Values(Results{"nothing"}, nil))

	//Exercise...

	spy.Expect(Twice())
	spy.Matching(Args(Eql("test"))).Expect(Once())
 }

A Fake is a Spy that provides an actual implementation of the method instead
of return values. Use with caution.

 func Test_Fake(t *testing.T) {
	d := NewAPIDouble(t)
	impl := func( i int, options...string) *Results {
		return &Results{Output: fmt.Sprintf("%s %d",strings.Join(options," "),i)}
	}

	spy := d.Fake("QueryWithOptions",impl)

	//Exercise...

	spy.Expect(Twice())
	spy.Matching(Args(Eql(10))).Expect(Once())
 }
*/
package gospy
