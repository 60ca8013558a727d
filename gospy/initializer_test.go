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

// greeter is the spy target domain shared by the initializer, factory and
// inject tests.
type greeter interface {
	Greet(name string) string
}

type realGreeter struct {
	salutation string
}

func newRealGreeter() *realGreeter {
	return &realGreeter{salutation: "hello"}
}

func (g *realGreeter) Greet(name string) string {
	return g.salutation + " " + name
}

type greeterDouble struct {
	greeter
	*Double
}

func (g *greeterDouble) Greet(name string) string {
	g.Double.T().Helper()
	return g.Invoke("Greet", name)[0].(string)
}

func wrapGreeter(d *Double) any {
	return &greeterDouble{Double: d}
}

func greeterDescriptor() Descriptor {
	return Descriptor{
		Target:  reflect.TypeOf((*realGreeter)(nil)),
		Iface:   reflect.TypeOf((*greeter)(nil)).Elem(),
		Wrapper: reflect.TypeOf((*greeterDouble)(nil)),
		Wrap:    wrapGreeter,
		New:     func() any { return newRealGreeter() },
	}
}

func greeterRegistry(tb testing.TB) *Registry {
	tb.Helper()
	reg := NewRegistry()
	require.NoError(tb, reg.Register(greeterDescriptor()))
	return reg
}

type greeterFixture struct {
	Greeter *greeterDouble
}

var greeterField = Field{Name: "Greeter", Type: reflect.TypeOf((*greeterDouble)(nil)), Index: []int{0}}

type ifaceGreeterFixture struct {
	Greeter greeter
}

var ifaceGreeterField = Field{Name: "Greeter", Type: reflect.TypeOf((*greeter)(nil)).Elem(), Index: []int{0}}

func TestInitializer_ConstructsFreshInstanceForEmptyField(t *testing.T) {
	in := NewInitializer(t, WithRegistry(t, greeterRegistry(t)))
	fix := &greeterFixture{}

	require.NoError(t, in.Initialize(fix, greeterField))
	require.NotNil(t, fix.Greeter)
	assert.Equal(t, "Greeter", fix.Greeter.Name())

	//Unstubbed calls run the declared constructor's instance.
	assert.Equal(t, "hello bob", fix.Greeter.Greet("bob"))
	fix.Greeter.Spy("Greet").Expect(Once())
}

func TestInitializer_WrapsExistingInstance(t *testing.T) {
	in := NewInitializer(t, WithRegistry(t, greeterRegistry(t)))
	fix := &ifaceGreeterFixture{Greeter: &realGreeter{salutation: "gday"}}

	require.NoError(t, in.Initialize(fix, ifaceGreeterField))

	d, ok := fix.Greeter.(*greeterDouble)
	require.True(t, ok, "expected the field to hold a *greeterDouble, have %T", fix.Greeter)
	assert.Equal(t, "Greeter", d.Name())

	//Stubs take precedence, everything else delegates to the pre-set instance.
	d.Stub("Greet").Matching("alice").Returning("shhh")
	assert.Equal(t, "shhh", fix.Greeter.Greet("alice"))
	assert.Equal(t, "gday bob", fix.Greeter.Greet("bob"))
	d.Spy("Greet").Matching("bob").Expect(Once())
}

func TestInitializer_ResetsExistingProxyInPlace(t *testing.T) {
	in := NewInitializer(t, WithRegistry(t, greeterRegistry(t)))
	fix := &greeterFixture{}

	require.NoError(t, in.Initialize(fix, greeterField))
	installed := fix.Greeter
	_ = fix.Greeter.Greet("bob")

	require.NoError(t, in.Initialize(fix, greeterField))
	assert.Same(t, installed, fix.Greeter, "a second initialization must keep the same proxy")

	//The reset proxy still delegates, and only post-reset calls are recorded.
	assert.Equal(t, "hello carol", fix.Greeter.Greet("carol"))
	spy := fix.Greeter.Spy("Greet")
	spy.Expect(Once())
	spy.Matching("bob").Expect(Never())
}

func TestInitializer_RejectsEmptyInterfaceField(t *testing.T) {
	in := NewInitializer(t, WithRegistry(t, greeterRegistry(t)))

	err := in.Initialize(&ifaceGreeterFixture{}, ifaceGreeterField)

	var initErr *InitError
	require.ErrorAs(t, err, &initErr)
	assert.Equal(t, "Greeter", initErr.Field)

	var cfg *ConfigError
	require.ErrorAs(t, err, &cfg)
	assert.Equal(t, ErrInterface, cfg.Kind)
	assert.Contains(t, err.Error(), "unable to initialize spy field 'Greeter'")
	assert.Contains(t, err.Error(), "cannot be spied on")
}

func TestInitializer_FailedWrapLeavesThePriorFieldValue(t *testing.T) {
	type unlistedGreeter struct{ greeter }
	in := NewInitializer(t, WithRegistry(t, greeterRegistry(t)))
	prior := &unlistedGreeter{}
	fix := &ifaceGreeterFixture{Greeter: prior}

	err := in.Initialize(fix, ifaceGreeterField)

	var cfg *ConfigError
	require.ErrorAs(t, err, &cfg)
	assert.Equal(t, ErrUnregisteredType, cfg.Kind)
	assert.Same(t, prior, fix.Greeter, "a failed wrap must not disturb the field")
}

// pricingCore is unexported, incomplete on its own and owned by tradeDesk:
// the un-constructible shape.
type quoteEngine interface {
	Quote(symbol string) float64
}

type pricingCore struct {
	quoteEngine
}

type auditSink interface {
	Note(line string)
}

type auditTrail struct {
	desk  *tradeDesk
	lines []string
}

func (a *auditTrail) Note(line string) {
	a.lines = append(a.lines, line)
}

type auditTrailDouble struct {
	auditSink
	*Double
}

func (a *auditTrailDouble) Note(line string) {
	a.Double.T().Helper()
	a.Invoke("Note", line)
}

type tradeDesk struct {
	Core  *pricingCore
	Audit *auditTrailDouble
}

var (
	coreField  = Field{Name: "Core", Type: reflect.TypeOf((*pricingCore)(nil)), Index: []int{0}}
	auditField = Field{Name: "Audit", Type: reflect.TypeOf((*auditTrailDouble)(nil)), Index: []int{1}}
)

func deskRegistry(tb testing.TB) *Registry {
	tb.Helper()
	reg := NewRegistry()
	require.NoError(tb, reg.Register(Descriptor{
		Target:    reflect.TypeOf((*pricingCore)(nil)),
		Abstract:  true,
		Enclosing: reflect.TypeOf((*tradeDesk)(nil)),
	}))
	require.NoError(tb, reg.Register(Descriptor{
		Target:       reflect.TypeOf((*auditTrail)(nil)),
		Iface:        reflect.TypeOf((*auditSink)(nil)).Elem(),
		Wrapper:      reflect.TypeOf((*auditTrailDouble)(nil)),
		Wrap:         func(d *Double) any { return &auditTrailDouble{Double: d} },
		NewWithOuter: func(outer any) any { return &auditTrail{desk: outer.(*tradeDesk)} },
		Enclosing:    reflect.TypeOf((*tradeDesk)(nil)),
	}))
	return reg
}

func TestInitializer_FailsForPrivateAbstractNestedType(t *testing.T) {
	in := NewInitializer(t, WithRegistry(t, deskRegistry(t)))

	err := in.Initialize(&tradeDesk{}, coreField)

	var cfg *ConfigError
	require.ErrorAs(t, err, &cfg)
	assert.Equal(t, ErrPrivateAbstractNested, cfg.Kind)
	assert.Equal(t, "pricingCore", cfg.Inner)
	assert.Equal(t, "tradeDesk", cfg.Outer)
	//The message names both types so the failure is actionable.
	assert.Contains(t, err.Error(), "pricingCore")
	assert.Contains(t, err.Error(), "tradeDesk")
}

func TestInitializer_FailedConstructionLeavesTheFieldEmpty(t *testing.T) {
	in := NewInitializer(t, WithRegistry(t, deskRegistry(t)))
	desk := &tradeDesk{}

	require.Error(t, in.Initialize(desk, coreField))
	assert.Nil(t, desk.Core, "a failed construction must leave the field empty")
}

func TestInitializer_ConstructsNestedTypeAgainstItsEnclosingInstance(t *testing.T) {
	in := NewInitializer(t, WithRegistry(t, deskRegistry(t)))
	desk := &tradeDesk{}

	require.NoError(t, in.Initialize(desk, auditField))
	require.NotNil(t, desk.Audit)
	assert.Equal(t, "Audit", desk.Audit.Name())

	trail, ok := desk.Audit.Target().(*auditTrail)
	require.True(t, ok)
	assert.Same(t, desk, trail.desk, "the constructed instance must be bound to the fixture")

	desk.Audit.Note("first trade")
	desk.Audit.Spy("Note").Matching("first trade").Expect(Once())
	assert.Equal(t, []string{"first trade"}, trail.lines)
}

func TestInitializer_FailsWhenEnclosingInstanceDoesNotMatch(t *testing.T) {
	type loneDesk struct {
		Audit *auditTrailDouble
	}
	in := NewInitializer(t, WithRegistry(t, deskRegistry(t)))

	err := in.Initialize(&loneDesk{}, Field{Name: "Audit", Type: reflect.TypeOf((*auditTrailDouble)(nil)), Index: []int{0}})

	var cfg *ConfigError
	require.ErrorAs(t, err, &cfg)
	assert.Equal(t, ErrOuterInstanceMismatch, cfg.Kind)
	assert.Contains(t, err.Error(), "auditTrail")
	assert.Contains(t, err.Error(), "tradeDesk")
}

func TestInitializer_ConstructsThroughPrivateConstructor(t *testing.T) {
	desc := greeterDescriptor()
	desc.New = func() any { return &realGreeter{salutation: "psst"} }
	desc.PrivateNew = true
	reg := NewRegistry()
	require.NoError(t, reg.Register(desc))

	in := NewInitializer(t, WithRegistry(t, reg))
	fix := &greeterFixture{}

	require.NoError(t, in.Initialize(fix, greeterField))
	assert.Equal(t, "psst bob", fix.Greeter.Greet("bob"))
}

func TestInitializer_FailsWithoutANoArgConstructor(t *testing.T) {
	desc := greeterDescriptor()
	desc.New = nil
	reg := NewRegistry()
	require.NoError(t, reg.Register(desc))

	in := NewInitializer(t, WithRegistry(t, reg))

	err := in.Initialize(&greeterFixture{}, greeterField)

	var cfg *ConfigError
	require.ErrorAs(t, err, &cfg)
	assert.Equal(t, ErrMissingConstructor, cfg.Kind)
	assert.Contains(t, err.Error(), "no-arg constructor")
}

func TestInitializer_FailsForUnregisterableFieldType(t *testing.T) {
	type hookFixture struct {
		Hook func()
	}
	in := NewInitializer(t, WithRegistry(t, NewRegistry()))

	err := in.Initialize(&hookFixture{}, Field{Name: "Hook", Type: reflect.TypeOf(func() {}), Index: []int{0}})

	var cfg *ConfigError
	require.ErrorAs(t, err, &cfg)
	assert.Equal(t, ErrUnregisteredType, cfg.Kind)
}

// stubFactory substitutes the proxy-creation collaborator to observe how the
// Initializer routes each field state.
type stubFactory struct {
	proxy     bool
	made      any
	wrapped   int
	built     int
	resets    int
	lastName  string
	lastValue any
}

func (f *stubFactory) WrapExisting(_ reflect.Type, instance any, name string, _ Answer) (any, error) {
	f.wrapped++
	f.lastName = name
	f.lastValue = instance
	return f.made, nil
}

func (f *stubFactory) ConstructAndWrap(_ reflect.Type, name string, _ Answer, _ ConstructionMode) (any, error) {
	f.built++
	f.lastName = name
	return f.made, nil
}

func (f *stubFactory) IsProxy(any) bool { return f.proxy }

func (f *stubFactory) Reset(any) error {
	f.resets++
	return nil
}

func TestInitializer_RoutesThroughInjectedCollaborators(t *testing.T) {
	t.Run("ExistingProxyIsOnlyReset", func(t *testing.T) {
		factory := &stubFactory{proxy: true}
		in := NewInitializer(t, WithFactory(factory), WithIntrospector(greeterRegistry(t)))

		fix := &ifaceGreeterFixture{Greeter: &realGreeter{}}
		installed := fix.Greeter

		require.NoError(t, in.Initialize(fix, ifaceGreeterField))
		assert.Equal(t, 1, factory.resets)
		assert.Zero(t, factory.wrapped)
		assert.Zero(t, factory.built)
		assert.Same(t, installed, fix.Greeter, "reset must not replace the field value")
	})

	t.Run("ExistingInstanceIsWrapped", func(t *testing.T) {
		factory := &stubFactory{made: &greeterDouble{}}
		in := NewInitializer(t, WithFactory(factory), WithIntrospector(greeterRegistry(t)))

		instance := &realGreeter{}
		fix := &ifaceGreeterFixture{Greeter: instance}

		require.NoError(t, in.Initialize(fix, ifaceGreeterField))
		assert.Equal(t, 1, factory.wrapped)
		assert.Zero(t, factory.built)
		assert.Equal(t, "Greeter", factory.lastName)
		assert.Same(t, instance, factory.lastValue)
	})

	t.Run("EmptyFieldIsConstructed", func(t *testing.T) {
		factory := &stubFactory{made: &greeterDouble{}}
		in := NewInitializer(t, WithFactory(factory), WithIntrospector(greeterRegistry(t)))

		require.NoError(t, in.Initialize(&greeterFixture{}, greeterField))
		assert.Equal(t, 1, factory.built)
		assert.Zero(t, factory.wrapped)
	})
}
