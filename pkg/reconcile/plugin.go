package reconcile

import (
	"github.com/vango-dev/arbor/pkg/element"
	"github.com/vango-dev/arbor/pkg/host"
)

// Plugin is an extension of the reconciler. A plugin implements one or more
// of ReusePlugin, RerenderPlugin and HostPlugin.
type Plugin interface {
	Name() string
}

// ReusePlugin decides whether an existing instance may be reused for next.
// Reuse is allowed unless any plugin returns false.
type ReusePlugin interface {
	Plugin
	ShouldReuse(inst *Instance, next *element.Element) bool
}

// RerenderPlugin decides whether a reused component instance must re-render.
// It is called after the instance has been moved to its new element. Any
// plugin returning true forces the re-render.
type RerenderPlugin interface {
	Plugin
	ShouldRerender(inst *Instance) bool
}

// HostPlugin applies property changes to a host node during commit. prev is
// nil for a node created in this commit.
type HostPlugin interface {
	Plugin
	UpdateHost(r host.Renderer, node host.Node, next, prev element.Props)
}

// DefaultPlugins returns the built-in plugins in evaluation order.
func DefaultPlugins() []Plugin {
	return []Plugin{TypeMatch{}, InjectCheck{}, ShallowProps{}, HostProperties{}}
}

// TypeMatch allows reuse only when the element type is unchanged.
type TypeMatch struct{}

func (TypeMatch) Name() string { return "type-match" }

func (TypeMatch) ShouldReuse(inst *Instance, next *element.Element) bool {
	return element.SameType(inst.element, next)
}

// InjectCheck forces recreation of an instance whose injected values no
// longer match what its providers currently hold.
type InjectCheck struct{}

func (InjectCheck) Name() string { return "inject-check" }

func (InjectCheck) ShouldReuse(inst *Instance, _ *element.Element) bool {
	if inst.ctx == nil {
		return true
	}
	for key, injected := range inst.ctx.injected {
		var current any
		if provider := findProvider(inst, key); provider != nil {
			current = provider.Peek()
		}
		if !element.Same(injected.Peek(), current) {
			return false
		}
	}
	return true
}

// ShallowProps re-renders a component whose props changed under shallow
// comparison.
type ShallowProps struct{}

func (ShallowProps) Name() string { return "shallow-props" }

func (ShallowProps) ShouldRerender(inst *Instance) bool {
	if inst.beforeElement == nil {
		return true
	}
	return !element.ShallowEqual(inst.element.Props, inst.beforeElement.Props)
}

// HostProperties delegates property updates to the renderer.
type HostProperties struct{}

func (HostProperties) Name() string { return "host-properties" }

func (HostProperties) UpdateHost(r host.Renderer, node host.Node, next, prev element.Props) {
	r.UpdateProperties(node, next, prev)
}

// pluginSet caches the capability views of a plugin list.
type pluginSet struct {
	all      []Plugin
	reuse    []ReusePlugin
	rerender []RerenderPlugin
	host     []HostPlugin
}

func newPluginSet(plugins []Plugin) pluginSet {
	ps := pluginSet{all: plugins}
	for _, p := range plugins {
		if rp, ok := p.(ReusePlugin); ok {
			ps.reuse = append(ps.reuse, rp)
		}
		if rp, ok := p.(RerenderPlugin); ok {
			ps.rerender = append(ps.rerender, rp)
		}
		if hp, ok := p.(HostPlugin); ok {
			ps.host = append(ps.host, hp)
		}
	}
	return ps
}

func (ps pluginSet) shouldReuse(inst *Instance, next *element.Element) bool {
	for _, p := range ps.reuse {
		if !p.ShouldReuse(inst, next) {
			return false
		}
	}
	return true
}

func (ps pluginSet) shouldRerender(inst *Instance) bool {
	for _, p := range ps.rerender {
		if p.ShouldRerender(inst) {
			return true
		}
	}
	return false
}

func (ps pluginSet) updateHost(r host.Renderer, node host.Node, next, prev element.Props) {
	for _, p := range ps.host {
		p.UpdateHost(r, node, next, prev)
	}
}
