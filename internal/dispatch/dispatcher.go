// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package dispatch sequences the measure lifecycle against the registry.
//
// Every operation accepts the sentinel handle and returns a safe default for
// it. Nothing an extension does, and no misconfiguration, escapes as a panic
// or an error: failures are logged and the safe default is returned.
package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/holomush/rainmux/internal/handle"
	"github.com/holomush/rainmux/internal/registry"
	"github.com/holomush/rainmux/internal/resolver"
	"github.com/holomush/rainmux/internal/skin"
	"github.com/holomush/rainmux/pkg/errutil"
	"github.com/holomush/rainmux/pkg/extension"
	"github.com/holomush/rainmux/pkg/rmapi"
)

var tracer = otel.Tracer("rainmux/dispatch")

// Resolver finds the behavior types a measure asks for.
type Resolver interface {
	ResolveSkin(ctx context.Context, ref resolver.ModuleRef, hint string) (resolver.SkinDescriptor, error)
	ResolveMeasure(ctx context.Context, ref resolver.ModuleRef, hint string) (resolver.MeasureDescriptor, error)
}

// Dispatcher runs lifecycle operations.
type Dispatcher struct {
	registry *registry.Registry
	resolver Resolver
	logger   *slog.Logger
}

// Option configures a Dispatcher during construction.
type Option func(*Dispatcher)

// WithLogger sets the structured logger. Host-facing diagnostics always go
// through the host API regardless.
func WithLogger(l *slog.Logger) Option {
	return func(d *Dispatcher) {
		d.logger = l
	}
}

// New creates a dispatcher over reg and res.
func New(reg *registry.Registry, res Resolver, opts ...Option) (*Dispatcher, error) {
	if reg == nil {
		return nil, ErrNilRegistry
	}
	if res == nil {
		return nil, ErrNilResolver
	}
	d := &Dispatcher{
		registry: reg,
		resolver: res,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// Registry returns the registry the dispatcher mutates.
func (d *Dispatcher) Registry() *registry.Registry { return d.registry }

// measureOptions are the options Initialize reads from the host.
type measureOptions struct {
	name        string
	measureType string
	module      resolver.ModuleRef
}

func readOptions(api rmapi.API) measureOptions {
	return measureOptions{
		name:        strings.TrimSpace(api.ReadString(rmapi.OptionMeasureName, "", false)),
		measureType: strings.TrimSpace(api.ReadString(rmapi.OptionMeasureType, "", false)),
		module: resolver.ModuleRef{
			Name: api.ReadString(rmapi.OptionAssemblyName, "", false),
			Path: api.ReadPath(rmapi.OptionAssemblyName, ""),
		},
	}
}

// rootFor is the extension root directory handed to a new group.
func rootFor(ref resolver.ModuleRef, api rmapi.API) string {
	if _, ok := ref.Builtin(); ok {
		if settings := api.SettingsFile(); settings != "" {
			return filepath.Dir(settings)
		}
		return ""
	}
	return skin.RootPath(ref.Key())
}

// Initialize resolves and constructs the measure api describes and returns
// its handle. Any failure is reported to the host log and yields the
// sentinel.
func (d *Dispatcher) Initialize(ctx context.Context, api rmapi.API) (h handle.Handle) {
	ctx, span := tracer.Start(ctx, "dispatch.initialize",
		trace.WithAttributes(
			attribute.String("measure.name", api.MeasureName()),
			attribute.String("skin.name", api.SkinName()),
		),
	)
	status := StatusOK
	defer func() {
		d.finish(span, OpInitialize, status)
		RecordStats(d.registry.Stats())
	}()

	if err := errutil.Guard("initialize", func() { h, status = d.initialize(ctx, api, span) }); err != nil {
		d.logger.Error("initialize panicked", "measure", api.MeasureName(), "error", err)
		api.Log(rmapi.LogError, err.Error())
		return handle.Sentinel
	}
	return h
}

func (d *Dispatcher) initialize(ctx context.Context, api rmapi.API, span trace.Span) (handle.Handle, string) {
	opts := readOptions(api)
	span.SetAttributes(
		attribute.String("measure.plugin_name", opts.name),
		attribute.String("measure.plugin_type", opts.measureType),
		attribute.String("module", opts.module.Key()),
	)

	if opts.name == "" {
		d.reportMissing(api, rmapi.OptionMeasureName)
		if opts.measureType == "" {
			d.reportMissing(api, rmapi.OptionMeasureType)
		}
		RecordResolutionFailure(CodeOptionMissing)
		span.SetStatus(codes.Error, "measure name missing")
		return handle.Sentinel, StatusConfigError
	}

	sd, md, err := d.resolve(ctx, opts)
	if err != nil {
		d.reportFailure(api, opts, err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return handle.Sentinel, StatusResolutionError
	}

	entry, err := d.registry.Attach(registry.AttachSpec{
		GroupHandle: api.Skin(),
		GroupName:   api.SkinName(),
		Window:      api.SkinWindow(),
		Root:        rootFor(opts.module, api),
		TypeID:      sd.TypeID(),
		NewSkin: func(g *skin.Group) (extension.Skin, error) {
			return sd.New(g, api)
		},
		MeasureName: api.MeasureName(),
		MeasureType: opts.measureType,
		NewMeasure: func(owner *skin.TypeContext) (extension.Measure, error) {
			return md.New(opts.measureType, owner, api)
		},
	})
	if err != nil {
		d.reportFailure(api, opts, err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return handle.Sentinel, StatusResolutionError
	}

	span.SetAttributes(
		attribute.String("instance.handle", entry.Handle.String()),
		attribute.String("instance.id", entry.Instance.ID().String()),
	)
	d.logger.DebugContext(ctx, "measure initialized",
		"handle", entry.Handle.String(),
		"instance_id", entry.Instance.ID().String(),
		"group", entry.Group.String(),
		"type", entry.Type.TypeID(),
		"measure_type", opts.measureType)
	return entry.Handle, StatusOK
}

func (d *Dispatcher) resolve(ctx context.Context, opts measureOptions) (resolver.SkinDescriptor, resolver.MeasureDescriptor, error) {
	md, err := d.resolver.ResolveMeasure(ctx, opts.module, opts.name)
	if err != nil {
		return resolver.SkinDescriptor{}, resolver.MeasureDescriptor{}, err
	}
	sd, err := d.resolver.ResolveSkin(ctx, opts.module, opts.name)
	if err != nil {
		return resolver.SkinDescriptor{}, resolver.MeasureDescriptor{}, err
	}
	return sd, md, nil
}

func (d *Dispatcher) reportMissing(api rmapi.API, option string) {
	err := ErrOptionMissing(option)
	api.Log(rmapi.LogError, err.Error())
	d.logger.Debug("measure option missing", "measure", api.MeasureName(), "option", option)
}

// reportFailure logs a resolution or construction failure. A blank type is
// reported too since the extension may have needed it.
func (d *Dispatcher) reportFailure(api rmapi.API, opts measureOptions, err error) {
	code := errutil.CodeOf(err)
	RecordResolutionFailure(code)
	if opts.measureType == "" {
		d.reportMissing(api, rmapi.OptionMeasureType)
	}
	api.Log(rmapi.LogError, fmt.Sprintf("%s: %s", code, err.Error()))
	errutil.LogError(d.logger.With("measure", api.MeasureName(), "module", opts.module.Key()), "measure initialization failed", err)
}

// lookup resolves h for a per-call operation. ok is false for the sentinel
// and for unknown handles; status says which.
func (d *Dispatcher) lookup(ctx context.Context, op string, h handle.Handle) (registry.Entry, string, bool) {
	entry, err := d.registry.Resolve(h)
	if err != nil {
		errutil.LogError(d.logger.With("operation", op), "lifecycle call on unknown handle", err)
		return registry.Entry{}, StatusInvariantViolation, false
	}
	if entry.Empty() {
		return registry.Entry{}, StatusSentinel, false
	}
	trace.SpanFromContext(ctx).SetAttributes(attribute.String("instance.id", entry.Instance.ID().String()))
	return entry, StatusOK, true
}

// guard runs an extension call and logs a recovered panic.
func (d *Dispatcher) guard(op string, entry registry.Entry, fn func()) string {
	if err := errutil.Guard(op, fn); err != nil {
		errutil.LogError(d.logger.With(
			"handle", entry.Handle.String(),
			"instance_id", entry.Instance.ID().String(),
			"measure", entry.Instance.Name(),
		), "extension panicked", err)
		return StatusPanic
	}
	return StatusOK
}

func (d *Dispatcher) finish(span trace.Span, op, status string) {
	span.SetAttributes(attribute.String("status", status))
	if status == StatusInvariantViolation || status == StatusPanic {
		span.SetStatus(codes.Error, status)
	}
	span.End()
	RecordCall(op, status)
}

// Reload hands the measure a fresh host API and lets it rewrite maxValue.
// Callable any number of times while the measure is live.
func (d *Dispatcher) Reload(ctx context.Context, h handle.Handle, api rmapi.API, maxValue *float64) {
	ctx, span := tracer.Start(ctx, "dispatch.reload", trace.WithAttributes(attribute.String("instance.handle", h.String())))
	entry, status, ok := d.lookup(ctx, OpReload, h)
	if ok {
		status = d.guard(OpReload, entry, func() { entry.Instance.Measure().Reload(api, maxValue) })
	}
	d.finish(span, OpReload, status)
}

// Update returns the measure's numeric value, or 0 for the sentinel.
func (d *Dispatcher) Update(ctx context.Context, h handle.Handle) (value float64) {
	ctx, span := tracer.Start(ctx, "dispatch.update", trace.WithAttributes(attribute.String("instance.handle", h.String())))
	entry, status, ok := d.lookup(ctx, OpUpdate, h)
	if ok {
		status = d.guard(OpUpdate, entry, func() { value = entry.Instance.Measure().Update() })
		if status != StatusOK {
			value = 0
		}
	}
	d.finish(span, OpUpdate, status)
	return value
}

// GetString returns the measure's string value. ok=false means the measure
// has no string, and the host will poll Update instead. The sentinel yields
// an empty string.
func (d *Dispatcher) GetString(ctx context.Context, h handle.Handle) (s string, ok bool) {
	ctx, span := tracer.Start(ctx, "dispatch.get_string", trace.WithAttributes(attribute.String("instance.handle", h.String())))
	entry, status, live := d.lookup(ctx, OpGetString, h)
	switch {
	case live:
		status = d.guard(OpGetString, entry, func() { s, ok = entry.Instance.Measure().GetString() })
		if status != StatusOK {
			s, ok = "", false
		}
	case status == StatusSentinel:
		s, ok = "", true
	}
	d.finish(span, OpGetString, status)
	return s, ok
}

// ExecuteBang passes a host command to the measure.
func (d *Dispatcher) ExecuteBang(ctx context.Context, h handle.Handle, command string) {
	ctx, span := tracer.Start(ctx, "dispatch.execute_bang", trace.WithAttributes(
		attribute.String("instance.handle", h.String()),
		attribute.String("command", command),
	))
	entry, status, ok := d.lookup(ctx, OpExecuteBang, h)
	if ok {
		status = d.guard(OpExecuteBang, entry, func() { entry.Instance.Measure().ExecuteBang(command) })
	}
	d.finish(span, OpExecuteBang, status)
}

// Finalize releases h and tears down, bottom-up, the measure and whatever
// type context and group it leaves empty. Every disposal runs even if an
// earlier one fails.
func (d *Dispatcher) Finalize(ctx context.Context, h handle.Handle) {
	ctx, span := tracer.Start(ctx, "dispatch.finalize", trace.WithAttributes(attribute.String("instance.handle", h.String())))
	status := StatusOK
	defer func() {
		d.finish(span, OpFinalize, status)
		RecordStats(d.registry.Stats())
	}()

	if h.IsSentinel() {
		status = StatusSentinel
		return
	}

	td, err := d.registry.Detach(h)
	if err != nil {
		errutil.LogError(d.logger.With("operation", OpFinalize), "finalize of unknown handle", err)
		status = StatusInvariantViolation
		return
	}

	span.SetAttributes(
		attribute.Bool("type.removed", td.Type != nil),
		attribute.Bool("group.removed", td.Group != nil),
	)
	if err := td.Run(); err != nil {
		errutil.LogError(d.logger.With("handle", h.String(), "instance_id", td.Instance.ID().String()), "teardown failed", err)
		status = StatusPanic
		return
	}
	d.logger.DebugContext(ctx, "measure finalized",
		"handle", h.String(),
		"instance_id", td.Instance.ID().String(),
		"type_removed", td.Type != nil,
		"group_removed", td.Group != nil)
}
