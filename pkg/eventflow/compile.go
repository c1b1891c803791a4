package eventflow

import (
	"container/heap"
	"errors"
	"slices"
)

// Compile validates the pipeline and produces a schedule.
//
// Validation checks:
//   - plugin and service names are valid and unique
//   - every declared dependency names a plugin or a service
//   - the plugin dependency graph has no cycle
//
// All problems found are joined into one error. On success every Binder
// plugin is bound, in schedule order.
func (p *Pipeline) Compile() (*CompiledPipeline, error) {
	errs := slices.Clone(p.errs)

	n := len(p.plugins)
	dependents := make([][]int, n)
	dependsOn := make([][]int, n)
	indeg := make([]int, n)

	for i, pl := range p.plugins {
		seen := make(map[int]struct{})
		for _, dep := range pl.Dependencies() {
			if j, ok := p.index[dep]; ok {
				if _, dup := seen[j]; dup {
					continue
				}
				seen[j] = struct{}{}
				dependents[j] = append(dependents[j], i)
				dependsOn[i] = append(dependsOn[i], j)
				indeg[i]++
				continue
			}
			if p.services.Has(dep) {
				continue
			}
			errs = append(errs, &UnresolvedDependencyError{Plugin: pl.Name(), Dependency: dep})
		}
	}

	order := topoOrder(indeg, dependents)
	if len(order) < n {
		cycle := findCycle(dependsOn)
		path := make([]string, len(cycle))
		for i, idx := range cycle {
			path[i] = p.plugins[idx].Name()
		}
		errs = append(errs, &CyclicDependencyError{Path: path})
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	cp := newCompiledPipeline(p, order, dependents)
	if err := cp.bind(); err != nil {
		return nil, err
	}
	return cp, nil
}

type intMinHeap []int

func (h intMinHeap) Len() int           { return len(h) }
func (h intMinHeap) Less(i, j int) bool { return h[i] < h[j] }
func (h intMinHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *intMinHeap) Push(x any)        { *h = append(*h, x.(int)) }
func (h *intMinHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

// topoOrder is Kahn's algorithm with the ready set kept as a min-heap of
// declaration indices, so among runnable plugins the earliest declared goes
// first. The result is shorter than indeg when the graph has a cycle.
func topoOrder(indeg []int, dependents [][]int) []int {
	remaining := slices.Clone(indeg)

	ready := &intMinHeap{}
	for i, d := range remaining {
		if d == 0 {
			heap.Push(ready, i)
		}
	}

	out := make([]int, 0, len(remaining))
	for ready.Len() > 0 {
		n := heap.Pop(ready).(int)
		out = append(out, n)
		for _, m := range dependents[n] {
			remaining[m]--
			if remaining[m] == 0 {
				heap.Push(ready, m)
			}
		}
	}
	return out
}

// findCycle returns one cycle following "depends on" edges, as declaration
// indices with the first index repeated at the end. The DFS visits roots and
// edges in declaration order, so the witness is stable.
func findCycle(dependsOn [][]int) []int {
	const (
		white = iota
		gray
		black
	)

	color := make([]int, len(dependsOn))
	parent := make([]int, len(dependsOn))
	for i := range parent {
		parent[i] = -1
	}

	var cycle []int
	var dfs func(u int) bool
	dfs = func(u int) bool {
		color[u] = gray
		for _, v := range dependsOn[u] {
			switch color[v] {
			case white:
				parent[v] = u
				if dfs(v) {
					return true
				}
			case gray:
				// Back edge u -> v: walk parents from u up to v.
				path := []int{u}
				for cur := u; cur != v; {
					cur = parent[cur]
					path = append(path, cur)
				}
				slices.Reverse(path)
				cycle = append(path, v)
				return true
			}
		}
		color[u] = black
		return false
	}

	for i := range dependsOn {
		if color[i] == white && dfs(i) {
			break
		}
	}
	return cycle
}
