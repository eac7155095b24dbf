// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package dispatch_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention

	"github.com/holomush/rainmux/internal/handle"
	"github.com/holomush/rainmux/internal/registry"
	"github.com/holomush/rainmux/internal/resolver"
	"github.com/holomush/rainmux/pkg/errutil"
	"github.com/holomush/rainmux/pkg/extension"
	"github.com/holomush/rainmux/pkg/rmapi"
)

func writeTempModule(name string) string {
	path := filepath.Join(GinkgoT().TempDir(), name)
	Expect(os.WriteFile(path, []byte("module"), 0o600)).To(Succeed())
	return path
}

var _ = Describe("Lifecycle dispatch", func() {
	var (
		f   *fixture
		ctx context.Context
	)

	BeforeEach(func() {
		var err error
		f, err = newFixture()
		Expect(err).NotTo(HaveOccurred())
		ctx = context.Background()
	})

	Describe("handle uniqueness", func() {
		It("never hands out a handle that is already live", func() {
			live := map[handle.Handle]bool{}
			for i := range 40 {
				h := f.dispatcher.Initialize(ctx, f.host(uintptr(i%4+1), fmt.Sprintf("m%d", i), "Fake", ""))
				Expect(h.IsSentinel()).To(BeFalse())
				Expect(live).NotTo(HaveKey(h))
				live[h] = true
				if i%3 == 0 {
					f.dispatcher.Finalize(ctx, h)
					delete(live, h)
				}
			}
		})
	})

	Describe("sentinel handle", func() {
		It("returns safe defaults and leaves the registry untouched", func() {
			_ = f.dispatcher.Initialize(ctx, f.host(1, "m1", "Fake", ""))
			before := f.registry.Stats()

			maxValue := 3.0
			f.dispatcher.Reload(ctx, handle.Sentinel, f.host(1, "m1", "Fake", ""), &maxValue)
			Expect(maxValue).To(Equal(3.0))
			Expect(f.dispatcher.Update(ctx, handle.Sentinel)).To(BeZero())
			s, ok := f.dispatcher.GetString(ctx, handle.Sentinel)
			Expect(s).To(BeEmpty())
			Expect(ok).To(BeTrue())
			f.dispatcher.ExecuteBang(ctx, handle.Sentinel, "!Refresh")
			f.dispatcher.Finalize(ctx, handle.Sentinel)

			Expect(f.registry.Stats()).To(Equal(before))
		})
	})

	Describe("cascade teardown", func() {
		It("removes only the instance when siblings remain", func() {
			a := f.dispatcher.Initialize(ctx, f.host(1, "a", "Fake", ""))
			_ = f.dispatcher.Initialize(ctx, f.host(1, "b", "Fake", ""))

			f.dispatcher.Finalize(ctx, a)
			Expect(f.registry.Stats()).To(Equal(registry.Stats{Groups: 1, Types: 1, Instances: 1}))
		})

		It("removes instance, type context and group for the last instance", func() {
			h := f.dispatcher.Initialize(ctx, f.host(1, "a", "Fake", ""))
			f.dispatcher.Finalize(ctx, h)
			Expect(f.registry.Stats()).To(Equal(registry.Stats{}))
			_, found := f.registry.Group(1)
			Expect(found).To(BeFalse())
		})
	})

	Describe("resolution idempotence", func() {
		It("loads a module once however often it is resolved", func() {
			loads := 0
			res, err := resolver.New(resolver.WithLoader(".fake", resolver.LoaderFunc(func(context.Context, string) (*extension.Module, error) {
				loads++
				return fakes.Module("file", "Fake"), nil
			})))
			Expect(err).NotTo(HaveOccurred())
			ref := resolver.ModuleRef{Name: "mod.fake", Path: writeTempModule("mod.fake")}

			first, err := res.ResolveMeasure(ctx, ref, "Fake")
			Expect(err).NotTo(HaveOccurred())
			second, err := res.ResolveMeasure(ctx, ref, "fake")
			Expect(err).NotTo(HaveOccurred())

			Expect(first.TypeID()).To(Equal(second.TypeID()))
			Expect(loads).To(Equal(1))
			Expect(res.Loads()).To(Equal(1))
		})
	})

	Describe("Scenario A: blank name and type", func() {
		It("logs both missing options and yields the sentinel", func() {
			h := f.dispatcher.Initialize(ctx, f.host(1, "m1", "", ""))

			Expect(h).To(Equal(handle.Sentinel))
			Expect(f.journal.Matching(rmapi.LogError, "PluginMeasureName= Not found.")).To(HaveLen(1))
			Expect(f.journal.Matching(rmapi.LogError, "PluginMeasureType= Not found.")).To(HaveLen(1))
			Expect(f.registry.Stats()).To(Equal(registry.Stats{}))
		})
	})

	Describe("Scenario B: first instance in a new group", func() {
		It("creates exactly one group, one type context and one instance", func() {
			before := f.registry.Stats()
			h := f.dispatcher.Initialize(ctx, f.host(7, "m1", "Fake", "Seconds"))

			Expect(h).NotTo(Equal(handle.Sentinel))
			after := f.registry.Stats()
			Expect(after.Groups - before.Groups).To(Equal(1))
			Expect(after.Types - before.Types).To(Equal(1))
			Expect(after.Instances - before.Instances).To(Equal(1))
		})
	})

	Describe("Scenario C: second instance of the same type", func() {
		It("adds only an instance", func() {
			first := f.dispatcher.Initialize(ctx, f.host(7, "m1", "Fake", ""))
			firstEntry, err := f.registry.Resolve(first)
			Expect(err).NotTo(HaveOccurred())

			second := f.dispatcher.Initialize(ctx, f.host(7, "m2", "Fake", ""))
			secondEntry, err := f.registry.Resolve(second)
			Expect(err).NotTo(HaveOccurred())

			Expect(secondEntry.Group).To(BeIdenticalTo(firstEntry.Group))
			Expect(secondEntry.Type).To(BeIdenticalTo(firstEntry.Type))
			Expect(f.registry.Stats()).To(Equal(registry.Stats{Groups: 1, Types: 1, Instances: 2}))
		})
	})

	Describe("Scenario D: finalize the only instance", func() {
		It("removes everything and later lookups are invariant violations", func() {
			h := f.dispatcher.Initialize(ctx, f.host(7, "m1", "Fake", ""))
			f.dispatcher.Finalize(ctx, h)

			Expect(f.registry.Stats()).To(Equal(registry.Stats{}))
			_, err := f.registry.Resolve(h)
			Expect(err).To(HaveOccurred())
			Expect(errutil.HasCode(err, registry.CodeInvariantViolation)).To(BeTrue())
		})
	})

	Describe("Scenario E: string then no string", func() {
		It("reports absence so the host polls the number", func() {
			h := f.dispatcher.Initialize(ctx, f.host(7, "m1", "Fake", ""))
			m := lastMeasure()
			m.SetString("12:00", true)
			m.SetValue(720)

			s, ok := f.dispatcher.GetString(ctx, h)
			Expect(ok).To(BeTrue())
			Expect(s).To(Equal("12:00"))

			m.SetString("", false)
			_, ok = f.dispatcher.GetString(ctx, h)
			Expect(ok).To(BeFalse())
			Expect(f.dispatcher.Update(ctx, h)).To(Equal(720.0))
		})
	})
})
