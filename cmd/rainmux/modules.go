// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/holomush/rainmux/internal/bridge"
	"github.com/holomush/rainmux/internal/resolver"
	"github.com/holomush/rainmux/internal/xdg"
	"github.com/holomush/rainmux/pkg/extension"
)

// NewModulesCmd creates the modules command group.
func NewModulesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "modules",
		Short: "List and inspect extension modules",
	}
	cmd.AddCommand(newModulesListCmd())
	cmd.AddCommand(newModulesInspectCmd())
	return cmd
}

func newModulesListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List builtin modules and module files in the data directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			for _, name := range extension.Builtins() {
				_, _ = fmt.Fprintf(w, "%s%s\tbuiltin\n", extension.BuiltinPrefix, name)
			}
			dir, err := modulesDir()
			if err == nil {
				entries, _ := os.ReadDir(dir)
				for _, e := range entries {
					if e.IsDir() {
						continue
					}
					ext := strings.ToLower(filepath.Ext(e.Name()))
					if ext == bridge.ExtLua || ext == bridge.ExtNative {
						_, _ = fmt.Fprintf(w, "%s\t%s\n", filepath.Join(dir, e.Name()), strings.TrimPrefix(ext, "."))
					}
				}
			}
			return w.Flush()
		},
	}
}

func newModulesInspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <path|builtin:name>",
		Short: "Load a module and list its types",
		Long: `Load a module through the configured resolver (allow-list and API
constraint apply) and print its API version and type pairs. A relative
path that does not exist is looked up in the data directory's modules
folder.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			res, err := bridge.NewResolver(cfg, logger)
			if err != nil {
				return err
			}
			ref := moduleRef(args[0])
			m, err := res.Module(cmd.Context(), ref)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			_, _ = fmt.Fprintf(w, "module:\t%s\n", m.Name())
			_, _ = fmt.Fprintf(w, "key:\t%s\n", ref.Key())
			_, _ = fmt.Fprintf(w, "api version:\t%s\n", m.APIVersion())
			_, _ = fmt.Fprintf(w, "skin types:\t%s\n", strings.Join(m.SkinTypes(), ", "))
			_, _ = fmt.Fprintf(w, "measure types:\t%s\n", strings.Join(m.MeasureTypes(), ", "))
			return w.Flush()
		},
	}
}

// moduleRef turns a CLI argument into a module reference.
func moduleRef(arg string) resolver.ModuleRef {
	if strings.HasPrefix(arg, extension.BuiltinPrefix) {
		return resolver.ModuleRef{Name: arg}
	}
	path := arg
	if !filepath.IsAbs(path) {
		if _, err := os.Stat(path); err != nil {
			if dir, derr := modulesDir(); derr == nil {
				path = filepath.Join(dir, path)
			}
		} else if abs, err := filepath.Abs(path); err == nil {
			path = abs
		}
	}
	return resolver.ModuleRef{Name: arg, Path: path}
}

func modulesDir() (string, error) {
	d, err := xdg.DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(d, "modules"), nil
}
