package reconcile

import (
	"log/slog"
	"time"

	"github.com/vango-dev/arbor/internal/errors"
	"github.com/vango-dev/arbor/pkg/element"
	"github.com/vango-dev/arbor/pkg/host"
)

type frameKind int

const (
	frameInstance frameKind = iota
	frameMount
)

type frame struct {
	kind frameKind
	inst *Instance
}

// commit applies the completed walk to the host. It visits the tree in
// pre-order with an explicit stack: pending deletions are torn down first,
// then the instance's host node is created, updated and placed. Mount
// listeners are queued beneath the child and sibling frames so they fire
// once the subtree and following siblings are attached.
func (r *Root) commit() (err error) {
	start := time.Now()
	var stats CommitStats
	defer func() {
		elapsed := time.Since(start)
		r.observer.Committed(stats, elapsed, err)
		r.logger.Debug("commit",
			slog.Int("created", stats.Created),
			slog.Int("placed", stats.Placed),
			slog.Int("removed", stats.Removed),
			slog.Int("mounted", stats.Mounted),
			slog.Duration("elapsed", elapsed))
	}()

	// placed tracks, per host parent, the last node put in position.
	placed := make(map[host.Node]host.Node)

	stack := []frame{{kind: frameInstance, inst: r.app}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		inst := f.inst

		if f.kind == frameMount {
			if !inst.ctx.mounted {
				inst.ctx.triggerMounted()
				stats.Mounted++
			}
			continue
		}

		for _, d := range inst.deletions {
			r.teardown(d, &stats)
		}
		inst.deletions = nil

		if inst.element == nil && inst.node == nil {
			return errors.New("E021")
		}

		if inst.isHost() {
			if inst.node == nil {
				inst.node = r.createNode(inst)
				stats.Created++
			}
			if inst.hostElement != inst.element {
				var prev element.Props
				if inst.hostElement != nil {
					prev = inst.hostElement.Props
				}
				r.plugins.updateHost(r.renderer, inst.node, inst.element.Props, prev)
				inst.hostElement = inst.element
				stats.Updated++
			}
			if err := r.place(inst, placed, &stats); err != nil {
				return err
			}
		}

		if !inst.ctx.mounted {
			stack = append(stack, frame{kind: frameMount, inst: inst})
		}
		if inst.sibling != nil && inst != r.app {
			stack = append(stack, frame{kind: frameInstance, inst: inst.sibling})
		}
		if inst.child != nil {
			stack = append(stack, frame{kind: frameInstance, inst: inst.child})
		}
	}
	return nil
}

// createNode realizes the host node of a primitive instance.
func (r *Root) createNode(inst *Instance) host.Node {
	el := inst.element
	switch el.Tag {
	case element.TextTag:
		return r.renderer.CreateText(el.TextContent())
	case element.CommentTag:
		return r.renderer.CreateComment(el.TextContent())
	}
	if inst.namespace != "" {
		if nr, ok := r.renderer.(host.NamespaceRenderer); ok {
			return nr.CreateLeafNS(inst.namespace, el.Tag)
		}
	}
	return r.renderer.CreateLeaf(el.Tag)
}

// place moves inst's node into position under its host parent. The node is
// expected right after the last node placed under the same parent; when it
// is elsewhere it is appended, which keeps every later sibling appended too.
func (r *Root) place(inst *Instance, placed map[host.Node]host.Node, stats *CommitStats) error {
	parent := inst.hostParent()
	if parent == nil {
		return errors.New("E020").WithDetailf("instance %s", inst.element)
	}

	var expected host.Node
	if last, ok := placed[parent]; ok {
		expected = r.renderer.NextSibling(last)
	} else {
		expected = r.renderer.FirstChild(parent)
	}
	if expected != inst.node {
		r.renderer.Insert(parent, inst.node, nil)
		stats.Placed++
	}
	placed[parent] = inst.node
	return nil
}

// teardown detaches a removed subtree: its outermost host nodes are removed,
// unmount listeners fire children first, contexts are disposed and host
// handles cleared.
func (r *Root) teardown(d *Instance, stats *CommitStats) {
	for _, n := range d.topHostNodes() {
		r.renderer.Remove(n)
		stats.Removed++
	}
	for _, x := range d.subtree() {
		x.ctx.triggerUnmounted()
		stats.Unmounted++
		x.ctx.Dispose()
		x.node = nil
		x.hostElement = nil
		x.deletions = nil
	}
}
