// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package dispatch_test

import (
	"github.com/samber/oops"

	"github.com/holomush/rainmux/internal/dispatch"
	"github.com/holomush/rainmux/internal/registry"
	"github.com/holomush/rainmux/internal/resolver"
	"github.com/holomush/rainmux/pkg/extension"
	"github.com/holomush/rainmux/pkg/extension/extensiontest"
	"github.com/holomush/rainmux/pkg/rmapi"
	"github.com/holomush/rainmux/pkg/rmapi/memapi"
)

// builtinModule is the module every dispatcher test resolves against.
const builtinModule = "builtin:dispatchtest"

var fakes = extensiontest.NewFactory()

func init() {
	m := extension.NewModule("dispatchtest")
	m.MustRegister("Fake", fakes.NewSkin, fakes.NewMeasure)
	m.MustRegister("Other", fakes.NewSkin, fakes.NewMeasure)
	m.MustRegister("Broken", fakes.NewSkin, brokenMeasure)
	m.MustRegister("Exploding", fakes.NewSkin, explodingMeasure)
	m.MustRegister("Relay", fakes.NewSkin, relayMeasure)
	m.MustRegister("Coded", fakes.NewSkin, codedMeasure)
	extension.RegisterBuiltin(m)
}

func brokenMeasure(string, extension.Owner, rmapi.API) (extension.Measure, error) {
	return nil, extensiontest.ErrRefused
}

func explodingMeasure(string, extension.Owner, rmapi.API) (extension.Measure, error) {
	panic("constructor exploded")
}

func codedMeasure(string, extension.Owner, rmapi.API) (extension.Measure, error) {
	return nil, oops.Code("BAD_SUBTYPE").Errorf("unknown sub-type")
}

// relayMeasure sends its measure type to the host as a bang while it is
// being constructed.
func relayMeasure(measureType string, owner extension.Owner, api rmapi.API) (extension.Measure, error) {
	api.Execute(measureType)
	return fakes.NewMeasure(measureType, owner, api)
}

// fixture wires a dispatcher over a fresh registry and resolver.
type fixture struct {
	registry   *registry.Registry
	resolver   *resolver.Resolver
	dispatcher *dispatch.Dispatcher
	journal    *memapi.Journal
}

func newFixture() (*fixture, error) {
	reg := registry.New()
	res, err := resolver.New()
	if err != nil {
		return nil, err
	}
	d, err := dispatch.New(reg, res)
	if err != nil {
		return nil, err
	}
	return &fixture{registry: reg, resolver: res, dispatcher: d, journal: memapi.NewJournal()}, nil
}

// host builds the host API for one measure in skin gh.
func (f *fixture) host(gh uintptr, measure, name, measureType string, opts ...memapi.Option) *memapi.API {
	options := map[string]string{
		rmapi.OptionAssemblyName: builtinModule,
		rmapi.OptionMeasureName:  name,
		rmapi.OptionMeasureType:  measureType,
	}
	opts = append([]memapi.Option{memapi.WithJournal(f.journal)}, opts...)
	return memapi.New(memapi.Skin{Handle: gh, Name: "skin", Window: gh + 0x1000}, measure, options, opts...)
}

// lastMeasure returns the most recent measure built by the shared factory.
func lastMeasure() *extensiontest.Measure {
	return fakes.LastMeasure()
}
