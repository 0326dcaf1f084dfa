// Package domain contains the core domain models of the build engine.
package domain

import (
	"cmp"
	"slices"
)

// Edge is a reference from one configuration to a configuration it depends on.
type Edge struct {
	From ConfigRef
	To   ConfigRef
}

// BuildOrder is the total order over the configurations of one build request.
// Referenced configurations precede the configurations referencing them, except
// where a reference cycle forced an edge to be dropped (see Dropped).
type BuildOrder struct {
	configs   []ConfigRef
	index     map[ConfigRef]int
	requested []ConfigRef
	isReq     map[ConfigRef]bool
	deps      [][]int
	rdeps     [][]int
	dropped   []Edge
}

type orderKey struct {
	explicit     int
	registration int
	config       int
	name         string
}

func compareKeys(a, b orderKey) int {
	if c := cmp.Compare(a.explicit, b.explicit); c != 0 {
		return c
	}
	if c := cmp.Compare(a.registration, b.registration); c != 0 {
		return c
	}
	if c := cmp.Compare(a.config, b.config); c != 0 {
		return c
	}
	return cmp.Compare(a.name, b.name)
}

// ResolveBuildOrder expands the requested configurations into a build order.
// An empty request selects the active configuration of every open project.
//
// The order is closed under transitive reference. References to missing or
// closed projects and to undeclared configurations are dropped. Unordered
// configurations are placed by explicit workspace build order, then project
// registration order, then configuration declaration order, then name.
//
// Reference cycles never fail resolution. When only cyclic configurations
// remain, the one with the lowest placement key is emitted next and its
// references to configurations not yet emitted are recorded in Dropped.
func ResolveBuildOrder(ws *Workspace, requested []ConfigRef) *BuildOrder {
	v := ws.view()

	roots := make([]ConfigRef, 0, len(requested))
	if len(requested) == 0 {
		for _, name := range v.order {
			if p := v.projects[name]; p.Open {
				roots = append(roots, p.ActiveRef())
			}
		}
	} else {
		for _, ref := range requested {
			if r, ok := v.resolve(ref); ok {
				roots = append(roots, r)
			}
		}
	}

	g := &graphBuilder{view: v, index: make(map[ConfigRef]int)}
	for _, r := range roots {
		g.add(r)
	}
	g.expand()

	o := &BuildOrder{
		index: make(map[ConfigRef]int, len(g.nodes)),
		isReq: make(map[ConfigRef]bool, len(roots)),
	}
	for _, r := range roots {
		o.isReq[r] = true
	}
	o.sort(g, v)
	return o
}

type graphBuilder struct {
	view  view
	nodes []ConfigRef
	index map[ConfigRef]int
	adj   [][]int
}

func (g *graphBuilder) add(ref ConfigRef) int {
	if i, ok := g.index[ref]; ok {
		return i
	}
	i := len(g.nodes)
	g.index[ref] = i
	g.nodes = append(g.nodes, ref)
	g.adj = append(g.adj, nil)
	return i
}

// expand discovers every transitively referenced configuration.
func (g *graphBuilder) expand() {
	for i := 0; i < len(g.nodes); i++ {
		ref := g.nodes[i]
		p := g.view.projects[ref.Project]

		targets := make([]ConfigRef, 0, len(p.References[ref.Name])+len(p.DynamicReferences))
		targets = append(targets, p.References[ref.Name]...)
		for _, name := range p.DynamicReferences {
			targets = append(targets, ActiveConfigOf(name))
		}

		for _, t := range targets {
			r, ok := g.view.resolve(t)
			if !ok || r == ref {
				continue
			}
			j := g.add(r)
			if !slices.Contains(g.adj[i], j) {
				g.adj[i] = append(g.adj[i], j)
			}
		}
	}
}

func (o *BuildOrder) sort(g *graphBuilder, v view) {
	n := len(g.nodes)

	explicit := make(map[string]int, len(v.buildOrder))
	for i, name := range v.buildOrder {
		if _, ok := explicit[name]; !ok {
			explicit[name] = i
		}
	}
	registration := make(map[string]int, len(v.order))
	for i, name := range v.order {
		registration[name] = i
	}

	keys := make([]orderKey, n)
	for i, ref := range g.nodes {
		pos, ok := explicit[ref.Project]
		if !ok {
			pos = len(v.buildOrder)
		}
		keys[i] = orderKey{
			explicit:     pos,
			registration: registration[ref.Project],
			config:       v.projects[ref.Project].ConfigIndex(ref.Name),
			name:         ref.Name,
		}
	}

	rev := make([][]int, n)
	pending := make([]int, n)
	for i, targets := range g.adj {
		pending[i] = len(targets)
		for _, j := range targets {
			rev[j] = append(rev[j], i)
		}
	}

	emitted := make([]bool, n)
	pos := make([]int, n)
	var ready []int
	for i := range n {
		if pending[i] == 0 {
			ready = append(ready, i)
		}
	}

	lowest := func(candidates []int) int {
		best := 0
		for k := 1; k < len(candidates); k++ {
			if compareKeys(keys[candidates[k]], keys[candidates[best]]) < 0 {
				best = k
			}
		}
		return best
	}

	o.configs = make([]ConfigRef, 0, n)
	for len(o.configs) < n {
		var next int
		if len(ready) > 0 {
			k := lowest(ready)
			next = ready[k]
			ready = slices.Delete(ready, k, k+1)
		} else {
			remaining := make([]int, 0, n-len(o.configs))
			for i := range n {
				if !emitted[i] {
					remaining = append(remaining, i)
				}
			}
			next = remaining[lowest(remaining)]
			for _, j := range g.adj[next] {
				if !emitted[j] {
					o.dropped = append(o.dropped, Edge{From: g.nodes[next], To: g.nodes[j]})
				}
			}
			pending[next] = 0
		}

		emitted[next] = true
		pos[next] = len(o.configs)
		o.index[g.nodes[next]] = len(o.configs)
		o.configs = append(o.configs, g.nodes[next])

		for _, d := range rev[next] {
			if emitted[d] {
				continue
			}
			pending[d]--
			if pending[d] == 0 {
				ready = append(ready, d)
			}
		}
	}

	o.deps = make([][]int, n)
	o.rdeps = make([][]int, n)
	for i, targets := range g.adj {
		from := pos[i]
		for _, j := range targets {
			o.deps[from] = append(o.deps[from], pos[j])
			o.rdeps[pos[j]] = append(o.rdeps[pos[j]], from)
		}
	}
	for i := range n {
		slices.Sort(o.deps[i])
		slices.Sort(o.rdeps[i])
	}

	for _, ref := range o.configs {
		if o.isReq[ref] {
			o.requested = append(o.requested, ref)
		}
	}
}

// Configs returns the ordered configurations.
func (o *BuildOrder) Configs() []ConfigRef {
	return slices.Clone(o.configs)
}

// Len returns the number of configurations in the order.
func (o *BuildOrder) Len() int {
	return len(o.configs)
}

// Position returns the position of a resolved configuration in the order.
func (o *BuildOrder) Position(ref ConfigRef) (int, bool) {
	i, ok := o.index[ref]
	return i, ok
}

// IsRequested reports whether the configuration was part of the original request.
func (o *BuildOrder) IsRequested(ref ConfigRef) bool {
	return o.isReq[ref]
}

// Requested returns the requested configurations in build order.
func (o *BuildOrder) Requested() []ConfigRef {
	return slices.Clone(o.requested)
}

// Dependencies returns the directly referenced configurations that precede ref.
// A configuration may not start before all of them have finished.
func (o *BuildOrder) Dependencies(ref ConfigRef) []ConfigRef {
	i, ok := o.index[ref]
	if !ok {
		return nil
	}
	var res []ConfigRef
	for _, j := range o.deps[i] {
		if j < i {
			res = append(res, o.configs[j])
		}
	}
	return res
}

// Dependents returns the directly referencing configurations that follow ref.
func (o *BuildOrder) Dependents(ref ConfigRef) []ConfigRef {
	i, ok := o.index[ref]
	if !ok {
		return nil
	}
	var res []ConfigRef
	for _, j := range o.rdeps[i] {
		if j > i {
			res = append(res, o.configs[j])
		}
	}
	return res
}

// Dropped returns the references ignored to break cycles.
func (o *BuildOrder) Dropped() []Edge {
	return slices.Clone(o.dropped)
}

// Context returns the build context of a configuration within this order.
func (o *BuildOrder) Context(ref ConfigRef) BuildContext {
	ctx := BuildContext{
		Config:    ref,
		Requested: o.Requested(),
	}
	i, ok := o.index[ref]
	if !ok {
		return ctx
	}

	forward := o.reach(i, o.deps)
	backward := o.reach(i, o.rdeps)
	for j, cfg := range o.configs {
		switch {
		case j < i && forward[j]:
			ctx.Referenced = append(ctx.Referenced, cfg)
		case j > i && backward[j]:
			ctx.Referencing = append(ctx.Referencing, cfg)
		}
	}
	return ctx
}

func (o *BuildOrder) reach(start int, adj [][]int) []bool {
	seen := make([]bool, len(o.configs))
	stack := []int{start}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, m := range adj[n] {
			if !seen[m] {
				seen[m] = true
				stack = append(stack, m)
			}
		}
	}
	seen[start] = false
	return seen
}
