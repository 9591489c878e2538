package pipeline

import (
	"fmt"
	"sort"
	"strings"
)

// Registry holds every declared Stage and computes the order Run
// executes them in.
type Registry struct {
	stages map[string]*Stage
	order  []string // insertion order, for deterministic iteration pre-sort
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{stages: make(map[string]*Stage)}
}

// Register adds s. It is an error to register a stage with no name, no
// populator, or a name already taken.
func (r *Registry) Register(s Stage) error {
	if s.Name == "" {
		return fmt.Errorf("pipeline: stage has no name")
	}
	if s.Populate == nil {
		return fmt.Errorf("pipeline: stage %q has no populator", s.Name)
	}
	if _, exists := r.stages[s.Name]; exists {
		return fmt.Errorf("pipeline: stage %q registered twice", s.Name)
	}
	stage := s
	r.stages[s.Name] = &stage
	r.order = append(r.order, s.Name)
	return nil
}

// dependencyGraph returns, for each registered stage, the set of stage
// names that must run before it — Predecessors plus whatever edges
// other stages' Successors lists imply onto it.
func (r *Registry) dependencyGraph() (map[string][]string, error) {
	deps := make(map[string][]string, len(r.stages))
	for name, s := range r.stages {
		for _, p := range s.Predecessors {
			deps[name] = appendUnique(deps[name], p)
		}
	}
	for name, s := range r.stages {
		for _, succ := range s.Successors {
			deps[succ] = appendUnique(deps[succ], name)
		}
	}
	for name, prereqs := range deps {
		for _, p := range prereqs {
			if _, ok := r.stages[p]; !ok {
				return nil, fmt.Errorf("pipeline: stage %q depends on unregistered stage %q", name, p)
			}
		}
		if _, ok := r.stages[name]; !ok {
			return nil, fmt.Errorf("pipeline: unregistered stage %q named as a dependency", name)
		}
	}
	return deps, nil
}

// Order computes a topological order over the registered stages
// consistent with their declared predecessors (spec.md §4.7). Ties are
// broken alphabetically by stage name so the order is deterministic
// across runs (mirrors context_v2.ComputeTopologicalOrder's
// sorted-queue tie-break). A dependency cycle is a fatal configuration
// error, reported with the offending cycle path.
func (r *Registry) Order() ([]string, error) {
	deps, err := r.dependencyGraph()
	if err != nil {
		return nil, err
	}

	if cycle := findCycle(deps); cycle != nil {
		return nil, fmt.Errorf("pipeline: dependency cycle: %s", strings.Join(cycle, " -> "))
	}

	dependents := make(map[string][]string, len(r.stages))
	inDegree := make(map[string]int, len(r.stages))
	for name := range r.stages {
		inDegree[name] = len(deps[name])
	}
	for name, prereqs := range deps {
		for _, p := range prereqs {
			dependents[p] = append(dependents[p], name)
		}
	}

	var queue []string
	for name, d := range inDegree {
		if d == 0 {
			queue = append(queue, name)
		}
	}
	sort.Strings(queue)

	order := make([]string, 0, len(r.stages))
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		order = append(order, cur)

		var ready []string
		for _, dep := range dependents[cur] {
			inDegree[dep]--
			if inDegree[dep] == 0 {
				ready = append(ready, dep)
			}
		}
		sort.Strings(ready)
		queue = append(queue, ready...)
	}

	if len(order) != len(r.stages) {
		return nil, fmt.Errorf("pipeline: dependency cycle involving %d stage(s)", len(r.stages)-len(order))
	}
	return order, nil
}

// findCycle performs a DFS over deps (stage -> its prerequisites) and
// returns the first cycle found as a printable path, or nil if the
// graph is acyclic. Grounded on context_v2.findCycle/hasCyclePath's
// backtracking-path DFS.
func findCycle(deps map[string][]string) []string {
	const (
		unvisited = 0
		visiting  = 1
		done      = 2
	)
	state := make(map[string]int)
	var path []string

	names := make([]string, 0, len(deps))
	for name := range deps {
		names = append(names, name)
	}
	sort.Strings(names)

	var visit func(string) []string
	visit = func(name string) []string {
		switch state[name] {
		case done:
			return nil
		case visiting:
			// name is already on path; report the cycle from its first
			// occurrence through the current frame.
			for i, p := range path {
				if p == name {
					return append(append([]string{}, path[i:]...), name)
				}
			}
			return []string{name, name}
		}
		state[name] = visiting
		path = append(path, name)
		prereqs := append([]string{}, deps[name]...)
		sort.Strings(prereqs)
		for _, p := range prereqs {
			if cycle := visit(p); cycle != nil {
				return cycle
			}
		}
		path = path[:len(path)-1]
		state[name] = done
		return nil
	}

	for _, name := range names {
		if cycle := visit(name); cycle != nil {
			return cycle
		}
	}
	return nil
}

// Stage looks up a registered stage by name.
func (r *Registry) Stage(name string) (*Stage, bool) {
	s, ok := r.stages[name]
	return s, ok
}
