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
Package spygen generates typed wrapper doubles for interfaces.

For an interface API it emits an APIDouble embedding the interface and a
gospy.Double, one intercepting method per interface method, a NewAPIDouble
constructor and an init function registering a gospy.Descriptor so InitSpies
can construct and wrap instances of the target type.

The generator is source driven: it parses the package with go/parser rather
than loading it, so it works on code that does not compile yet.
*/
package spygen

import (
	"bytes"
	"errors"
	"fmt"
	"go/ast"
	"go/format"
	"go/token"
	"io"
	"text/template"
)

// ErrNoNodes - Generate was called before any source was added.
var ErrNoNodes = errors.New("no source files provided")

// Generator builds the wrapper double for one interface.
type Generator struct {
	nodelist
	iface       string
	target      string
	constructor string
}

// Option configures a Generator.
type Option func(*Generator)

// WithTarget registers name as the concrete type the double stands in for,
// constructible via its zero value unless WithConstructor is also given.
func WithTarget(name string) Option {
	return func(g *Generator) { g.target = name }
}

// WithConstructor registers name as the no-arg constructor of the target.
func WithConstructor(name string) Option {
	return func(g *Generator) { g.constructor = name }
}

// NewGenerator prepares a generator for the named interface. Add source via
// AddSrc, AddFile or AddDir before calling Generate.
func NewGenerator(iface string, opts ...Option) *Generator {
	g := &Generator{
		iface:    iface,
		nodelist: nodelist{fset: token.NewFileSet()},
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Contract parses the added source into the render model for the interface.
func (g *Generator) Contract() (*InterfaceContract, error) {
	if len(g.nodes) == 0 {
		return nil, ErrNoNodes
	}

	spec := g.interfaceSpec()
	if spec == nil {
		return nil, fmt.Errorf("interface %s not found in package %s", g.iface, g.pkg)
	}

	reaper := newTypeReaper(g.nodes)
	contract := &InterfaceContract{
		PkgName:       g.pkg,
		InterfaceName: g.iface,
		TargetName:    g.target,
		Constructor:   g.constructor,
	}

	for _, field := range spec.Methods.List {
		if len(field.Names) == 0 {
			return nil, fmt.Errorf("interface %s embeds %s: embedded interfaces are not supported", g.iface, reaper.expr(field.Type))
		}
		ft, ok := field.Type.(*ast.FuncType)
		if !ok {
			continue
		}
		for _, name := range field.Names {
			contract.Methods = append(contract.Methods, reapMethod(reaper, name.Name, ft))
		}
	}
	if reaper.err != nil {
		return nil, fmt.Errorf("interface %s: %w", g.iface, reaper.err)
	}

	contract.Imports = reaper.imports()
	return contract, nil
}

// Generate renders the wrapper double source, gofmt applied, to w.
func (g *Generator) Generate(w io.Writer) error {
	contract, err := g.Contract()
	if err != nil {
		return err
	}

	buf := bytes.Buffer{}
	if err := doubleTmpl.Execute(&buf, contract); err != nil {
		return err
	}
	src, err := format.Source(buf.Bytes())
	if err != nil {
		return fmt.Errorf("generated source for %s does not format: %w", g.iface, err)
	}
	_, err = w.Write(src)
	return err
}

func (g *Generator) interfaceSpec() *ast.InterfaceType {
	for _, node := range g.nodes {
		for _, decl := range node.Decls {
			gd, ok := decl.(*ast.GenDecl)
			if !ok || gd.Tok != token.TYPE {
				continue
			}
			for _, spec := range gd.Specs {
				ts, ok := spec.(*ast.TypeSpec)
				if !ok || ts.Name.Name != g.iface {
					continue
				}
				if it, ok := ts.Type.(*ast.InterfaceType); ok {
					return it
				}
			}
		}
	}
	return nil
}

func reapMethod(reaper *typeReaper, name string, ft *ast.FuncType) MethodInfo {
	m := MethodInfo{Name: name}

	argN := 0
	if ft.Params != nil {
		for _, p := range ft.Params.List {
			typ := reaper.expr(p.Type)
			if len(p.Names) == 0 {
				m.Params = append(m.Params, ParamInfo{Name: fmt.Sprintf("arg%d", argN), Type: typ})
				argN++
				continue
			}
			for _, pname := range p.Names {
				pn := pname.Name
				if pn == "" || pn == "_" {
					pn = fmt.Sprintf("arg%d", argN)
				}
				m.Params = append(m.Params, ParamInfo{Name: pn, Type: typ})
				argN++
			}
		}
	}

	if ft.Results != nil {
		for _, res := range ft.Results.List {
			typ := reaper.expr(res.Type)
			n := len(res.Names)
			if n == 0 {
				n = 1
			}
			for i := 0; i < n; i++ {
				m.Returns = append(m.Returns, typ)
			}
		}
	}
	return m
}

var doubleTmpl = template.Must(template.New("double").Parse(`// Code generated by spygen; DO NOT EDIT.

package {{.PkgName}}

import (
	"reflect"
{{- range .Imports}}
	{{printf "%q" .}}
{{- end}}

	"github.com/lwoggardner/gospy/gospy"
)

// {{.WrapperName}} is a test double for {{.InterfaceName}}.
type {{.WrapperName}} struct {
	{{.InterfaceName}}
	*gospy.Double
}

// New{{.WrapperName}} builds a {{.WrapperName}} over a new gospy.Double.
func New{{.WrapperName}}(t gospy.T, configs ...func(*gospy.Double)) *{{.WrapperName}} {
	return &{{.WrapperName}}{Double: gospy.NewDouble(t, (*{{.InterfaceName}})(nil), configs...)}
}

func init() {
	gospy.Register(gospy.Descriptor{
{{- if .TargetName}}
		Target:  reflect.TypeOf((*{{.TargetName}})(nil)),
{{- else}}
		Target:  reflect.TypeOf((*{{.InterfaceName}})(nil)).Elem(),
{{- end}}
		Iface:   reflect.TypeOf((*{{.InterfaceName}})(nil)).Elem(),
		Wrapper: reflect.TypeOf((*{{.WrapperName}})(nil)),
		Wrap:    func(d *gospy.Double) any { return &{{.WrapperName}}{Double: d} },
{{- if .Constructor}}
		New:     func() any { return {{.Constructor}}() },
{{- else if .TargetName}}
		ZeroValue: true,
{{- end}}
	})
}
{{range .Methods}}
func (d *{{$.WrapperName}}) {{.Name}}({{.ParamDecls}}){{.ResultDecl}} {
	d.Double.T().Helper()
{{- if .Returns}}
	returns := d.Invoke("{{.Name}}"{{range .CallArgs}}, {{.}}{{end}})
{{- range $i, $r := .Returns}}
	r{{$i}}, _ := returns[{{$i}}].({{$r}})
{{- end}}
	return {{.ReturnList}}
{{- else}}
	d.Invoke("{{.Name}}"{{range .CallArgs}}, {{.}}{{end}})
{{- end}}
}
{{end}}`))
