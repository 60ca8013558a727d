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

// Command spygen generates gospy wrapper doubles for interfaces, normally
// from a go:generate directive in the package under test:
//
//	//go:generate go run github.com/lwoggardner/gospy/cmd/spygen --interface API --target ProdAPI --constructor NewProdAPI --output api_double.go .
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/lwoggardner/gospy/spygen"
)

var version = "dev"

type options struct {
	iface       string
	target      string
	constructor string
	output      string
}

func main() {
	opts := &options{}

	root := &cobra.Command{
		Use:   "spygen [flags] [DIR]",
		Short: "Generate a gospy wrapper double for an interface",
		Long: `spygen parses the Go package in DIR (default ".") and generates a typed
wrapper double for the named interface, including a Descriptor registration
so gospy.InitSpies can construct and wrap instances of the target type.`,
		Version:      version,
		Args:         cobra.MaximumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) == 1 {
				dir = args[0]
			}
			return run(dir, opts)
		},
	}

	root.Flags().StringVarP(&opts.iface, "interface", "i", "", "interface to generate a double for (required)")
	root.Flags().StringVar(&opts.target, "target", "", "concrete type the double stands in for")
	root.Flags().StringVar(&opts.constructor, "constructor", "", "no-arg constructor of the target type")
	root.Flags().StringVarP(&opts.output, "output", "o", "", "output file relative to DIR (default <interface>_double.go)")
	_ = root.MarkFlagRequired("interface")

	if err := root.Execute(); err != nil {
		_, _ = color.New(color.FgRed).Fprintf(os.Stderr, "spygen: %v\n", err)
		os.Exit(1)
	}
}

func run(dir string, opts *options) error {
	var genOpts []spygen.Option
	if opts.target != "" {
		genOpts = append(genOpts, spygen.WithTarget(opts.target))
	}
	if opts.constructor != "" {
		if opts.target == "" {
			return fmt.Errorf("--constructor requires --target")
		}
		genOpts = append(genOpts, spygen.WithConstructor(opts.constructor))
	}

	g := spygen.NewGenerator(opts.iface, genOpts...)
	if err := g.AddDir(dir); err != nil {
		return err
	}

	out := opts.output
	if out == "" {
		out = strings.ToLower(opts.iface) + "_double.go"
	}
	path := filepath.Join(dir, out)

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := g.Generate(f); err != nil {
		return err
	}
	_, _ = color.New(color.FgGreen).Fprintf(os.Stderr, "spygen: wrote %s\n", path)
	return nil
}
