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

package spygen

import (
	"fmt"
	"strings"
)

// ParamInfo is one parameter of an interface method. Variadic parameters
// keep the leading "..." in Type.
type ParamInfo struct {
	Name string
	Type string
}

func (p ParamInfo) String() string {
	return p.Name + " " + p.Type
}

// MethodInfo is everything the template needs to emit one wrapper method.
type MethodInfo struct {
	Name    string
	Params  []ParamInfo
	Returns []string
}

// ParamDecls renders the parameter list of the wrapper method.
func (m MethodInfo) ParamDecls() string {
	decls := make([]string, len(m.Params))
	for i, p := range m.Params {
		decls[i] = p.String()
	}
	return strings.Join(decls, ", ")
}

// CallArgs lists the parameter names forwarded to Double.Invoke. A variadic
// parameter is forwarded as its slice.
func (m MethodInfo) CallArgs() []string {
	args := make([]string, len(m.Params))
	for i, p := range m.Params {
		args[i] = p.Name
	}
	return args
}

// ResultDecl renders the return type clause, including its leading space.
func (m MethodInfo) ResultDecl() string {
	switch len(m.Returns) {
	case 0:
		return ""
	case 1:
		return " " + m.Returns[0]
	default:
		return " (" + strings.Join(m.Returns, ", ") + ")"
	}
}

// ReturnList names the asserted return values, "r0, r1, ...".
func (m MethodInfo) ReturnList() string {
	names := make([]string, len(m.Returns))
	for i := range m.Returns {
		names[i] = fmt.Sprintf("r%d", i)
	}
	return strings.Join(names, ", ")
}

// InterfaceContract is the parsed model of one interface, ready to render.
type InterfaceContract struct {
	PkgName       string
	Imports       []string
	InterfaceName string
	TargetName    string
	Constructor   string
	Methods       []MethodInfo
}

// WrapperName is the name of the generated double type.
func (c *InterfaceContract) WrapperName() string {
	return c.InterfaceName + "Double"
}
