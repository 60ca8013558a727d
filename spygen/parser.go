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
	"go/ast"
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

type nodelist struct {
	pkg   string
	fset  *token.FileSet
	nodes []*ast.File
}

// AddSrc adds raw source files to the generator's node list.
func (i *nodelist) AddSrc(src ...string) error {
	for _, v := range src {
		if err := i.addNode(v); err != nil {
			return err
		}
	}
	return nil
}

// AddFile parses and adds the named files to the node list.
func (i *nodelist) AddFile(filename ...string) error {
	for _, v := range filename {
		buf, err := os.ReadFile(v)
		if err != nil {
			return err
		}
		if err := i.addNode(string(buf)); err != nil {
			return fmt.Errorf("%s: %w", v, err)
		}
	}
	return nil
}

// AddDir adds every non-test .go file in dir.
func (i *nodelist) AddDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".go") || strings.HasSuffix(name, "_test.go") {
			continue
		}
		if err := i.AddFile(filepath.Join(dir, name)); err != nil {
			return err
		}
	}
	return nil
}

func (i *nodelist) addNode(src string) error {
	node, err := parser.ParseFile(i.fset, "", src, parser.AllErrors)
	if err != nil {
		return err
	}

	i.nodes = append(i.nodes, node)
	if i.pkg == "" {
		i.pkg = node.Name.Name
	}
	if node.Name.Name != i.pkg {
		return fmt.Errorf("invalid package: based on previous adds, wanted pkg %s, but got %s", i.pkg, node.Name.Name)
	}
	return nil
}

// typeReaper renders ast type expressions to source text and remembers which
// import aliases the rendered signatures actually use, so the generated file
// imports only what it needs.
type typeReaper struct {
	importAliases map[string]string
	usedAliases   map[string]struct{}
	err           error
}

func newTypeReaper(nodes []*ast.File) *typeReaper {
	r := &typeReaper{
		importAliases: map[string]string{},
		usedAliases:   map[string]struct{}{},
	}
	for _, node := range nodes {
		for _, imp := range node.Imports {
			path := strings.Trim(strings.TrimSpace(imp.Path.Value), `"`)
			alias := ""
			if imp.Name != nil {
				alias = imp.Name.Name
			} else {
				parts := strings.Split(path, "/")
				alias = parts[len(parts)-1]
			}
			r.importAliases[alias] = path
		}
	}
	return r
}

func (r *typeReaper) use(alias string) {
	if _, known := r.importAliases[alias]; known {
		r.usedAliases[alias] = struct{}{}
	}
}

func (r *typeReaper) imports() []string {
	var paths []string
	for alias := range r.usedAliases {
		paths = append(paths, r.importAliases[alias])
	}
	sort.Strings(paths)
	return paths
}

func (r *typeReaper) expr(e ast.Expr) string {
	switch t := e.(type) {
	case *ast.Ident:
		return t.Name
	case *ast.BasicLit:
		return t.Value
	case *ast.StarExpr:
		return "*" + r.expr(t.X)
	case *ast.SelectorExpr:
		if id, ok := t.X.(*ast.Ident); ok {
			r.use(id.Name)
			return id.Name + "." + t.Sel.Name
		}
		return r.expr(t.X) + "." + t.Sel.Name
	case *ast.Ellipsis:
		return "..." + r.expr(t.Elt)
	case *ast.ArrayType:
		if t.Len == nil {
			return "[]" + r.expr(t.Elt)
		}
		return "[" + r.expr(t.Len) + "]" + r.expr(t.Elt)
	case *ast.MapType:
		return "map[" + r.expr(t.Key) + "]" + r.expr(t.Value)
	case *ast.ChanType:
		switch t.Dir {
		case ast.RECV:
			return "<-chan " + r.expr(t.Value)
		case ast.SEND:
			return "chan<- " + r.expr(t.Value)
		default:
			return "chan " + r.expr(t.Value)
		}
	case *ast.FuncType:
		return "func" + r.funcSignature(t)
	case *ast.InterfaceType:
		if t.Methods == nil || len(t.Methods.List) == 0 {
			return "interface{}"
		}
		r.fail(fmt.Errorf("inline non-empty interface types are not supported"))
		return "interface{}"
	case *ast.IndexExpr:
		return r.expr(t.X) + "[" + r.expr(t.Index) + "]"
	case *ast.IndexListExpr:
		args := make([]string, len(t.Indices))
		for i, idx := range t.Indices {
			args[i] = r.expr(idx)
		}
		return r.expr(t.X) + "[" + strings.Join(args, ", ") + "]"
	default:
		r.fail(fmt.Errorf("unsupported type expression %T", e))
		return ""
	}
}

func (r *typeReaper) funcSignature(ft *ast.FuncType) string {
	sb := strings.Builder{}
	sb.WriteRune('(')
	if ft.Params != nil {
		for i, p := range ft.Params.List {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(r.expr(p.Type))
		}
	}
	sb.WriteRune(')')
	if ft.Results != nil && len(ft.Results.List) > 0 {
		results := make([]string, len(ft.Results.List))
		for i, res := range ft.Results.List {
			results[i] = r.expr(res.Type)
		}
		if len(results) == 1 {
			sb.WriteString(" " + results[0])
		} else {
			sb.WriteString(" (" + strings.Join(results, ", ") + ")")
		}
	}
	return sb.String()
}

func (r *typeReaper) fail(err error) {
	if r.err == nil {
		r.err = err
	}
}
