// Package graph tracks which modules import which during linking.
//
// Modules are kept in discovery order so that every traversal is
// deterministic, including traversals of cyclic import graphs.
package graph

// Graph is a directed graph from importing module to imported module.
// It is not safe for concurrent mutation.
type Graph struct {
	// requires maps a module to its direct dependencies in discovery order
	requires map[string][]string

	// modules lists every module in discovery order
	modules []string
}

// New creates an empty graph
func New() *Graph {
	return &Graph{
		requires: make(map[string][]string),
	}
}

// AddModule adds a module without edges. It reports whether the module
// was new.
func (g *Graph) AddModule(name string) bool {
	if _, ok := g.requires[name]; ok {
		return false
	}
	g.requires[name] = nil
	g.modules = append(g.modules, name)
	return true
}

// AddEdge records that from imports to. Both modules are added if needed;
// repeated edges are ignored.
func (g *Graph) AddEdge(from, to string) {
	g.AddModule(from)
	g.AddModule(to)
	for _, dep := range g.requires[from] {
		if dep == to {
			return
		}
	}
	g.requires[from] = append(g.requires[from], to)
}

// HasModule reports whether name is in the graph
func (g *Graph) HasModule(name string) bool {
	_, ok := g.requires[name]
	return ok
}

// Modules returns all modules in discovery order
func (g *Graph) Modules() []string {
	result := make([]string, len(g.modules))
	copy(result, g.modules)
	return result
}

// Requires returns the direct dependencies of name
func (g *Graph) Requires(name string) []string {
	deps := g.requires[name]
	result := make([]string, len(deps))
	copy(result, deps)
	return result
}

// Order returns all modules with dependencies before the modules that
// import them. Modules on a cycle are emitted once, in the order the
// traversal first finishes them.
func (g *Graph) Order() []string {
	return g.postOrder(g.modules)
}

// Closure returns name and every module reachable from it, dependencies
// first, using the same traversal as Order.
func (g *Graph) Closure(name string) []string {
	if !g.HasModule(name) {
		return nil
	}
	return g.postOrder([]string{name})
}

func (g *Graph) postOrder(roots []string) []string {
	visited := make(map[string]bool, len(g.modules))
	order := make([]string, 0, len(g.modules))

	var visit func(string)
	visit = func(name string) {
		if visited[name] {
			return
		}
		visited[name] = true
		for _, dep := range g.requires[name] {
			visit(dep)
		}
		order = append(order, name)
	}

	for _, name := range roots {
		visit(name)
	}
	return order
}

// Cyclic reports whether any import cycle exists.
func (g *Graph) Cyclic() bool {
	const (
		unvisited = iota
		active
		done
	)
	state := make(map[string]int, len(g.modules))

	var visit func(string) bool
	visit = func(name string) bool {
		switch state[name] {
		case active:
			return true
		case done:
			return false
		}
		state[name] = active
		for _, dep := range g.requires[name] {
			if visit(dep) {
				return true
			}
		}
		state[name] = done
		return false
	}

	for _, name := range g.modules {
		if visit(name) {
			return true
		}
	}
	return false
}
