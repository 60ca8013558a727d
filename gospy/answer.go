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

/*
An Answer decides what a Double returns for an invocation that no registered
Stub, Mock, Spy or Fake has matched.

Spies default to CallsRealMethods so unstubbed calls execute the backing
instance. Doubles with no backing instance default to ReturnsZeroValues.
*/
type Answer interface {
	Answer(d *Double, m reflect.Method, args []any) ([]any, error)
}

// AnswerFunc adapts a plain function to the Answer interface.
type AnswerFunc func(d *Double, m reflect.Method, args []any) ([]any, error)

func (f AnswerFunc) Answer(d *Double, m reflect.Method, args []any) ([]any, error) {
	return f(d, m, args)
}

type callsRealMethods struct{}

func (callsRealMethods) String() string { return "CallsRealMethods" }

func (callsRealMethods) Answer(d *Double, m reflect.Method, args []any) ([]any, error) {
	target := d.Target()
	if target == nil {
		return nil, fmt.Errorf("%v has no backing instance to delegate %s to", d, m.Name)
	}
	real := reflect.ValueOf(target).MethodByName(m.Name)
	if !real.IsValid() {
		return nil, fmt.Errorf("backing instance %T has no method %s", target, m.Name)
	}

	in := make([]reflect.Value, len(args))
	for i, arg := range args {
		if arg == nil {
			in[i] = reflect.Zero(real.Type().In(i))
		} else {
			in[i] = reflect.ValueOf(arg)
		}
	}

	var out []reflect.Value
	if real.Type().IsVariadic() && len(in) == real.Type().NumIn() && in[len(in)-1].Kind() == reflect.Slice {
		out = real.CallSlice(in)
	} else {
		out = real.Call(in)
	}

	if len(out) == 0 {
		return nil, nil
	}
	returns := make([]any, len(out))
	for i, v := range out {
		returns[i] = v.Interface()
	}
	return returns, nil
}

type returnsZeroValues struct{}

func (returnsZeroValues) String() string { return "ReturnsZeroValues" }

func (returnsZeroValues) Answer(_ *Double, m reflect.Method, _ []any) ([]any, error) {
	return defaultOutputsOf(m.Type), nil
}

var (
	callsRealMethodsSingleton = callsRealMethods{}
	returnsZeroSingleton      = returnsZeroValues{}
)

// CallsRealMethods answers unmatched invocations by reflectively invoking
// the same method on the Double's backing instance.
func CallsRealMethods() Answer {
	return callsRealMethodsSingleton
}

// ReturnsZeroValues answers unmatched invocations with the zero value of
// each return type.
func ReturnsZeroValues() Answer {
	return returnsZeroSingleton
}

// answerMethodCall is the catch-all MethodCall installed when no registered
// call matches an invocation. It records like a spy and produces values from
// the Double's default Answer.
type answerMethodCall struct {
	*spyMethodCall
	answer Answer
}

func newAnswerMethodCall(m *method, answer Answer) *answerMethodCall {
	return &answerMethodCall{spyMethodCall: newSpyMethodCall(m), answer: answer}
}

func (c *answerMethodCall) matches(_ []any) bool {
	return true
}

func (c *answerMethodCall) spy(args []any) ([]any, error) {
	// Record first so a panicking real method still leaves a trace.
	c.recorded = append(c.recorded, newRecordedCall(args))
	return c.answer.Answer(c.receiver, c.m, args)
}

func (c *answerMethodCall) verify(T) {
	// An answer never carries expectations of its own.
}
