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

	"github.com/google/uuid"
	"go.uber.org/zap"
)

//T is compatible with builtin testing.T
type T interface {
	Errorf(format string, args ...interface{})
	Fatalf(format string, args ...interface{})
	Logf(format string, args ...interface{})
	Helper()
}

//MatcherForMethod can be used to integrate a different matching framework
type MatcherForMethod func(t T, m reflect.Method, chained MethodArgsMatcher, matchers ...interface{}) MethodArgsMatcher

//ReturnsForMethod can be used to integrate a different return values framework
type ReturnsForMethod func(t T, m reflect.Method, chained ReturnValues, returnValues ...interface{}) ReturnValues

/*
A Double is a proxy implementation of an interface that can substitute for
the real thing in a 4 phase testing framework (Setup, Exercise, Verify,
Teardown).

Setup phase

Expected method calls to the double can be configured as one of the following types.

1) Stub - Returns known values in response to calls against matching input arguments

2) Mock - A stub with pre-built expectations about the number and order of method invocations on matching calls

3) Spy  - A stub that records calls as they execute

4) Fake - A substitute implementation for the method

A Double may additionally wrap a backing instance ("spying" on it), in which
case any invocation not claimed by a configured call is answered by the
default Answer, normally CallsRealMethods, so the real implementation runs
while the call is still recorded.

Exercise phase

Any methods invoked on the double are sent to the first matching call that
has been configured. If no matching call is available, the default call for
this double is generated: an Answer-backed recording call, or a
never-expected mock in strict mode.

Verify phase

The Verify() method is used to confirm expectations on Mock methods have been met.

Spies (and Fakes) have explicit methods to assert the number and order of method invocations on subsets of calls.
*/
type Double struct {
	t                   T
	id                  uuid.UUID
	name                string
	target              reflect.Value
	methods             map[string]*method
	defaultAnswer       Answer
	defaultCall         func(Method) MethodCall
	defaultReturnValues func(Method) ReturnValues
	forInterface        reflect.Type
	trace               bool
	logger              *zap.Logger
	matcher             MatcherForMethod
	returns             ReturnsForMethod
}

// Enable tracing of all received method calls (via T.Logf, and the trace
// logger when one is configured)
func (d *Double) EnableTrace() {
	d.trace = true
}

/*
SetDefaultCall allows caller to provide a function to decide whether to Stub, Mock, Spy or Fake
a call that was not explicitly registered in Setup phase.

the default function records the call and applies the double's default
Answer; in strict mode it is a mock that never expects to be called.
*/
func (d *Double) SetDefaultCall(defaultCall func(Method) MethodCall) {
	d.defaultCall = defaultCall
}

/*
	SetDefaultReturnValues allows a caller to provide a function to generate default return values
	for a Stub, Mock, or Spy that was not explicitly registered with ReturnValues during Setup.
	The default is to used zeroed values via reflection.
*/
func (d *Double) SetDefaultReturnValues(defaultReturns func(Method) ReturnValues) {
	d.defaultReturnValues = defaultReturns
}

func (d *Double) SetMatcherIntegration(forMethod MatcherForMethod) {
	d.matcher = forMethod
}

func (d *Double) SetReturnValuesIntegration(forMethod ReturnsForMethod) {
	d.returns = forMethod
}

func (d *Double) String() string {
	if d.name != "" {
		return fmt.Sprintf("%s(%v)", d.name, d.forInterface)
	}
	return fmt.Sprintf("DoubleFor(%v)", d.forInterface)
}

func (d *Double) T() T {
	return d.t
}

// Name is the display name of this double, normally the fixture field it
// was installed into.
func (d *Double) Name() string {
	return d.name
}

// ID is a unique identity for this double, for diagnostics.
func (d *Double) ID() uuid.UUID {
	return d.id
}

// Target returns the backing instance this double spies on, or nil.
func (d *Double) Target() interface{} {
	if !d.target.IsValid() {
		return nil
	}
	return d.target.Interface()
}

// Controller returns the engine double itself. Wrapper doubles embed
// *Double and so promote this method, which is how proxies are recognized.
func (d *Double) Controller() *Double {
	return d
}

// Reset discards every configured call and every recorded invocation, in
// place. The double keeps its identity, name, target and default answer, so
// an already-installed spy survives a repeated setup pass.
func (d *Double) Reset() {
	for _, m := range d.methods {
		m.mutex.Lock()
		m.calls = nil
		m.mutex.Unlock()
	}
}

//MethodCall is an abstract interface of specific call types, Stub, Mock, Spy and Fake
type MethodCall interface {
	matches(args []interface{}) bool
	spy(args []interface{}) ([]interface{}, error)
	verify(T)
}

// Named sets the display name of the double.
func Named(name string) func(*Double) {
	return func(d *Double) { d.name = name }
}

// Spying sets the backing instance whose real methods the double delegates
// to by default.
func Spying(target interface{}) func(*Double) {
	return func(d *Double) { d.target = reflect.ValueOf(target) }
}

// WithDefaultAnswer sets the policy for invocations no configured call
// matches.
func WithDefaultAnswer(answer Answer) func(*Double) {
	return func(d *Double) { d.defaultAnswer = answer }
}

// WithLogger routes invocation tracing to a structured logger, eg
// zaptest.NewLogger(t), in addition to T.Logf.
func WithLogger(logger *zap.Logger) func(*Double) {
	return func(d *Double) {
		d.logger = logger
		d.trace = true
	}
}

/*
NewDouble Constructor for Double called by specific implementation of test doubles.

forInterface is expected to be the nil implementation of an interface - (*Iface)(nil)

configurators are used to configure the name, backing target, default
Answer, tracing and default behaviour for unregistered method calls and
return values
*/
func NewDouble(t T, forInterface interface{}, configurators ...func(*Double)) *Double {
	doubleFor := reflect.TypeOf(forInterface)

	if doubleFor == nil || doubleFor.Kind() != reflect.Ptr || doubleFor.Elem().Kind() != reflect.Interface {
		t.Fatalf("Expecting '%v' to be a pointer to nil interface", forInterface)
	}
	return newDoubleOf(t, doubleFor.Elem(), configurators...)
}

// newDoubleOf builds a Double directly over an interface reflect.Type. The
// factory uses this form since descriptors carry the type, not a nil
// pointer value.
func newDoubleOf(t T, forInterface reflect.Type, configurators ...func(*Double)) *Double {
	if forInterface == nil || forInterface.Kind() != reflect.Interface {
		t.Fatalf("Expecting '%v' to be an interface type", forInterface)
	}

	double := &Double{
		t:            t,
		id:           uuid.New(),
		forInterface: forInterface,
		methods:      make(map[string]*method, forInterface.NumMethod()),
		trace:        currentSettings().Trace,
	}

	for i := 0; i < forInterface.NumMethod(); i++ {
		m := forInterface.Method(i)
		double.methods[m.Name] = newMethod(double, m)
	}

	defaults(double)
	for _, c := range configurators {
		c(double)
	}
	resolveDefaults(double)

	if double.matcher == nil {
		t.Fatalf("%v need SetMatcherIntegration() configured", forInterface)
	}

	if double.returns == nil || double.defaultReturnValues == nil {
		t.Fatalf("%v needs both SetReturnValuesIntegration and SetDefaultReturnValues configured", forInterface)
	}

	if double.defaultCall == nil {
		t.Fatalf("%v needs SetDefaultCall configured", forInterface)
	}

	return double
}

// defaults installs the baseline integrations before configurators run.
// Repeated Matching calls combine, repeated Returning calls form a Sequence.
func defaults(d *Double) {
	d.matcher = func(t T, m reflect.Method, chained MethodArgsMatcher, matchers ...interface{}) MethodArgsMatcher {
		matcher := NewMatcherForMethod(t, m, matchers...)
		if chained != nil {
			return All(chained, matcher)
		}
		return matcher
	}
	d.returns = func(t T, m reflect.Method, chained ReturnValues, returnValues ...interface{}) ReturnValues {
		returns := NewReturnsForMethod(t, m, returnValues...)
		if chained != nil {
			return Sequence(chained, returns)
		}
		return returns
	}
	d.defaultReturnValues = func(m Method) ReturnValues {
		return ZeroValues(m.Reflect().Type)
	}
}

// resolveDefaults fills whatever the configurators left unset: doubles with
// a backing target (or an explicit Answer) record and answer unregistered
// calls, plain doubles record them as dynamic spies returning the default
// return values, and strict mode turns them into never-expected mocks.
func resolveDefaults(d *Double) {
	answered := d.defaultAnswer != nil
	if !answered && d.target.IsValid() {
		d.defaultAnswer = CallsRealMethods()
		answered = true
	}
	if d.defaultAnswer == nil {
		d.defaultAnswer = ReturnsZeroValues()
	}
	if d.defaultCall == nil {
		switch {
		case currentSettings().Strict:
			d.defaultCall = func(m Method) MethodCall {
				return m.Mock().Expect(Never())
			}
		case answered:
			d.defaultCall = func(m Method) MethodCall {
				return newAnswerMethodCall(m.(*method), d.defaultAnswer)
			}
		default:
			d.defaultCall = func(m Method) MethodCall {
				return m.Spy()
			}
		}
	}
}

/*
Stub adds and returns a StubbedMethodCall for methodName on Double d

Setup phase

Configure Matcher and ReturnValues.

By default a StubbedMethodCall matches any arguments and returns zero values for all outputs.

Exercise Phase

The first stub matching the invocation arguments will provide the output values.

Verify Phase

Nothing to verify
*/
func (d *Double) Stub(methodName string) (stub StubbedMethodCall) {

	if m, found := d.methods[methodName]; found {
		m.mutex.Lock()
		defer m.mutex.Unlock()
		stub = m.Stub()
		m.addMethodCall(stub)
	} else {
		d.t.Fatalf("Cannot Stub non existent method %s for %v", methodName, d)
	}
	return
}

/*
Mock adds and returns a MockedMethodCall for methodName on Double d

Setup Phase

Configure Matcher, sequencing (After), and Return Values.

Set Expectation on number of matching invocations.

By default a MockedMethodCall matches any arguments, returns zero values for all outputs and
expects exactly one invocation.

Exercise Phase

The first mock matching the invocation arguments and not yet Complete in terms of Expectation will
provide the output values.

Verify Phase

(via call to a Double.Verify() usually deferred immediately after the double is created)

Will assert the Expectation is met.

*/
func (d *Double) Mock(methodName string) (mock MockedMethodCall) {
	if m, found := d.methods[methodName]; found {
		m.mutex.Lock()
		defer m.mutex.Unlock()
		mock = m.Mock()
		m.addMethodCall(mock)
	} else {
		d.t.Fatalf("Cannot Mock non existent method %s for %v", methodName, d)
	}
	return
}

/*
Spy records all calls to methodName.

Setup Phase

Configure ReturnValues.

Calling Spy twice for the same method will return the same Value (ie there is only every one spy,
and it will record methods that do not match any preceding Stub or Mock calls)

Exercise Phase

Matches and records all invocations.

Verify Phase

Can be called again to retrieve the spy for the method (eg to get a dynamically created default Spy).

Extract subsets of RecordedCalls and then verify an Expectations on the number of calls in the subset.

*/
func (d *Double) Spy(methodName string) (spy SpyMethodCall) {
	if m, found := d.methods[methodName]; found {
		m.mutex.Lock()
		defer m.mutex.Unlock()
		for _, methodCall := range m.calls {
			if call, isa := methodCall.(SpyMethodCall); isa {
				return call
			}
		}
		spy = m.Spy()
		m.addMethodCall(spy)
	} else {
		d.t.Fatalf("Cannot Spy on non existent method %s for %v", methodName, d)
	}
	return
}

/*
Fake installs a user implementation for the method.

Setup Phase

Install the Fake implementation, which must match the signature of the method.

Only one fake is installed for a method, and clobbers any other configured calls.

Exercise Phase

Invokes the fake function via reflection, and records the call as per Spy.

Verify Phase

Explicitly verify RecordedCalls as per Spy.
*/
func (d *Double) Fake(methodName string, impl interface{}) (fake FakeMethodCall) {

	if m, found := d.methods[methodName]; found {
		m.mutex.Lock()
		defer m.mutex.Unlock()
		for _, methodCall := range m.calls {
			if call, isa := methodCall.(SpyMethodCall); isa {
				d.t.Fatalf("unreachable fake for %s.%s which has previously registered a spy (%v)", d, methodName, call)
			}
		}
		fake = m.Fake(impl)
		m.addMethodCall(fake)
	} else {
		d.t.Fatalf("Cannot Fake non existent method %v.%s", d, methodName)
	}
	return
}

func (d *Double) Verify() {
	for _, method := range d.methods {
		for _, methodCall := range method.calls {
			methodCall.verify(d.t)
		}
	}
}

//Invoke is called by specialised double implementations, and sometimes by Fake implementations
//to record the invocation of a method.
func (d *Double) Invoke(methodName string, args ...interface{}) []interface{} {
	d.t.Helper()

	method, found := d.methods[methodName]
	if !found {
		d.t.Fatalf("Unexpected call to unknown methodName %T.%s", d, methodName)
	}
	return method.invoke(args)
}

type Verifiable interface {
	Verify()
}

//Verify is shorthand to Verify a set of Doubles
func Verify(testDoubles ...Verifiable) {
	for _, td := range testDoubles {
		td.Verify()
	}
}
