// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package simulate drives the bridge from a YAML scenario with in-memory
// hosts, so extension modules can be exercised without the host
// application.
package simulate

import (
	"os"
	"path/filepath"
	"slices"

	"github.com/samber/oops"
	"gopkg.in/yaml.v3"
)

// CodeScenarioInvalid marks a scenario file that cannot be run.
const CodeScenarioInvalid = "SCENARIO_INVALID"

// Step operations.
const (
	OpInitialize = "initialize"
	OpReload     = "reload"
	OpUpdate     = "update"
	OpString     = "string"
	OpBang       = "bang"
	OpSet        = "set"
	OpFinalize   = "finalize"
)

var ops = []string{OpInitialize, OpReload, OpUpdate, OpString, OpBang, OpSet, OpFinalize}

// Scenario is a parsed scenario file.
type Scenario struct {
	// Settings is the host settings file path. Builtin modules use its
	// directory as their root and rainmux.yaml is looked up next to it.
	Settings string        `yaml:"settings"`
	Skins    []SkinSpec    `yaml:"skins"`
	Measures []MeasureSpec `yaml:"measures"`
	Steps    []Step        `yaml:"steps"`
}

// SkinSpec is one simulated skin.
type SkinSpec struct {
	Name   string  `yaml:"name"`
	Handle uintptr `yaml:"handle"`
	Window uintptr `yaml:"window"`
	// Dir resolves relative module paths; defaults to the scenario directory.
	Dir string `yaml:"dir"`
}

// MeasureSpec is one simulated measure and its options.
type MeasureSpec struct {
	Name    string            `yaml:"name"`
	Skin    string            `yaml:"skin"`
	Options map[string]string `yaml:"options"`
}

// Step is one lifecycle call.
type Step struct {
	Op      string `yaml:"op"`
	Measure string `yaml:"measure"`
	// Command is the bang text for OpBang.
	Command string `yaml:"command,omitempty"`
	// Option and Value change a measure option for OpSet.
	Option string `yaml:"option,omitempty"`
	Value  string `yaml:"value,omitempty"`
	// Repeat runs the step this many times; 0 means once.
	Repeat int `yaml:"repeat,omitempty"`
}

// Load reads and checks the scenario at path.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, oops.Code(CodeScenarioInvalid).With("path", path).Wrapf(err, "read scenario")
	}
	return Parse(data, filepath.Dir(path))
}

// Parse decodes a scenario. dir fills in skin directories and makes a
// relative settings path absolute.
func Parse(data []byte, dir string) (*Scenario, error) {
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, oops.Code(CodeScenarioInvalid).Wrapf(err, "decode scenario")
	}
	if sc.Settings != "" && !filepath.IsAbs(sc.Settings) {
		sc.Settings = filepath.Join(dir, sc.Settings)
	}
	for i := range sc.Skins {
		if sc.Skins[i].Dir == "" {
			sc.Skins[i].Dir = dir
		}
	}
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	return &sc, nil
}

func invalid(format string, args ...any) error {
	return oops.Code(CodeScenarioInvalid).Errorf(format, args...)
}

// Validate checks names and references.
func (sc *Scenario) Validate() error {
	skins := make(map[string]bool, len(sc.Skins))
	handles := make(map[uintptr]bool, len(sc.Skins))
	for _, s := range sc.Skins {
		switch {
		case s.Name == "":
			return invalid("skin without a name")
		case skins[s.Name]:
			return invalid("duplicate skin %q", s.Name)
		case s.Handle == 0:
			return invalid("skin %q needs a non-zero handle", s.Name)
		case handles[s.Handle]:
			return invalid("skin %q reuses handle %d", s.Name, s.Handle)
		}
		skins[s.Name] = true
		handles[s.Handle] = true
	}

	measures := make(map[string]bool, len(sc.Measures))
	for _, m := range sc.Measures {
		switch {
		case m.Name == "":
			return invalid("measure without a name")
		case measures[m.Name]:
			return invalid("duplicate measure %q", m.Name)
		case !skins[m.Skin]:
			return invalid("measure %q names unknown skin %q", m.Name, m.Skin)
		}
		measures[m.Name] = true
	}

	for i, st := range sc.Steps {
		switch {
		case !slices.Contains(ops, st.Op):
			return invalid("step %d: unknown op %q", i+1, st.Op)
		case !measures[st.Measure]:
			return invalid("step %d: unknown measure %q", i+1, st.Measure)
		case st.Op == OpSet && st.Option == "":
			return invalid("step %d: set needs an option", i+1)
		case st.Repeat < 0:
			return invalid("step %d: negative repeat", i+1)
		}
	}
	return nil
}
