package synth

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/dominikbraun/graph"
	"gopkg.in/yaml.v3"
)

// Resource is one registration as the engine would receive it.
type Resource struct {
	Type string `json:"type" yaml:"type"`
	Name string `json:"name" yaml:"name"`
	// Path is the chain of logical names from the outermost component down
	// to this resource, e.g. network/network-nat.
	Path      string                 `json:"path" yaml:"path"`
	Custom    bool                   `json:"custom" yaml:"custom"`
	Parent    string                 `json:"parent,omitempty" yaml:"parent,omitempty"`
	Provider  string                 `json:"provider,omitempty" yaml:"provider,omitempty"`
	DependsOn []string               `json:"dependsOn,omitempty" yaml:"dependsOn,omitempty"`
	Inputs    map[string]interface{} `json:"inputs" yaml:"inputs"`
}

// Key identifies the resource within a plan.
func (r *Resource) Key() string {
	return resourceKey(r.Type, r.Name)
}

type Invoke struct {
	Token string                 `json:"token" yaml:"token"`
	Args  map[string]interface{} `json:"args" yaml:"args"`
}

// Plan is the synthesized program: every resource keyed by type token and
// logical name, the data source calls it made and its stack outputs.
type Plan struct {
	Project   string                          `json:"project" yaml:"project"`
	Stack     string                          `json:"stack" yaml:"stack"`
	Resources map[string]map[string]*Resource `json:"resources" yaml:"resources"`
	Invokes   []Invoke                        `json:"invokes" yaml:"invokes"`
	Outputs   map[string]interface{}          `json:"outputs" yaml:"outputs"`
	// Order lists resource keys so that every resource follows its parent
	// and its dependencies. Ties are broken by key.
	Order []string `json:"order" yaml:"order"`
}

// Lookup returns the resource with the given type token and logical name.
func (p *Plan) Lookup(typ, name string) (*Resource, bool) {
	r, ok := p.Resources[typ][name]
	return r, ok
}

// OfType returns the resources with the given type token sorted by name.
func (p *Plan) OfType(typ string) []*Resource {
	byName := p.Resources[typ]
	names := make([]string, 0, len(byName))
	for name := range byName {
		names = append(names, name)
	}
	sort.Strings(names)
	out := make([]*Resource, 0, len(names))
	for _, name := range names {
		out = append(out, byName[name])
	}
	return out
}

// Each calls fn for every resource in plan order.
func (p *Plan) Each(fn func(*Resource)) {
	for _, key := range p.Order {
		typ, name, _ := strings.Cut(key, "::")
		if r, ok := p.Lookup(typ, name); ok {
			fn(r)
		}
	}
}

func (p *Plan) JSON() ([]byte, error) {
	return json.MarshalIndent(p, "", "  ")
}

func (p *Plan) YAML() ([]byte, error) {
	return yaml.Marshal(p)
}

// Marshal encodes the plan as json or yaml.
func (p *Plan) Marshal(format string) ([]byte, error) {
	switch format {
	case "", "json":
		return p.JSON()
	case "yaml", "yml":
		return p.YAML()
	}
	return nil, fmt.Errorf("unknown format %q", format)
}

func newPlan(project, stack string, rec *recorder, outputs map[string]interface{}) (*Plan, error) {
	rec.mu.Lock()
	defer rec.mu.Unlock()

	plan := &Plan{
		Project:   project,
		Stack:     stack,
		Resources: map[string]map[string]*Resource{},
		Invokes:   make([]Invoke, 0, len(rec.invokes)),
		Outputs:   outputs,
	}
	if plan.Outputs == nil {
		plan.Outputs = map[string]interface{}{}
	}

	for _, r := range rec.resources {
		if _, ok := plan.Resources[r.typ]; !ok {
			plan.Resources[r.typ] = map[string]*Resource{}
		}
		plan.Resources[r.typ][r.name] = &Resource{
			Type:      r.typ,
			Name:      r.name,
			Path:      path(rec.resources, r),
			Custom:    r.custom,
			Parent:    known(rec.resources, r.parent),
			Provider:  known(rec.resources, r.provider),
			DependsOn: knownAll(rec.resources, r.dependencies),
			Inputs:    r.inputs,
		}
	}

	for _, inv := range rec.invokes {
		plan.Invokes = append(plan.Invokes, Invoke{Token: inv.token, Args: inv.args})
	}
	sort.SliceStable(plan.Invokes, func(i, j int) bool {
		a, b := plan.Invokes[i], plan.Invokes[j]
		if a.Token != b.Token {
			return a.Token < b.Token
		}
		// json.Marshal sorts map keys, which makes this a total order
		aj, _ := json.Marshal(a.Args)
		bj, _ := json.Marshal(b.Args)
		return string(aj) < string(bj)
	})

	order, err := topologicalOrder(plan)
	if err != nil {
		return nil, err
	}
	plan.Order = order
	return plan, nil
}

// known drops references to resources that were never registered with the
// recorder, such as the root stack.
func known(resources map[string]*recordedResource, key string) string {
	if _, ok := resources[key]; ok {
		return key
	}
	return ""
}

func knownAll(resources map[string]*recordedResource, keys []string) []string {
	var out []string
	for _, key := range keys {
		if known(resources, key) != "" {
			out = append(out, key)
		}
	}
	return out
}

func path(resources map[string]*recordedResource, r *recordedResource) string {
	segments := []string{r.name}
	seen := map[string]bool{}
	for parent := resources[r.parent]; parent != nil; parent = resources[parent.parent] {
		key := resourceKey(parent.typ, parent.name)
		if seen[key] {
			break
		}
		seen[key] = true
		segments = append([]string{parent.name}, segments...)
	}
	return strings.Join(segments, "/")
}

// topologicalOrder sorts the resources so that parents, providers and
// dependencies come first.
func topologicalOrder(plan *Plan) ([]string, error) {
	g := graph.New(graph.StringHash, graph.Directed(), graph.PreventCycles())

	var keys []string
	for _, byName := range plan.Resources {
		for _, r := range byName {
			keys = append(keys, r.Key())
		}
	}
	sort.Strings(keys)
	for _, key := range keys {
		if err := g.AddVertex(key); err != nil {
			return nil, fmt.Errorf("adding %s: %w", key, err)
		}
	}

	for _, key := range keys {
		typ, name, _ := strings.Cut(key, "::")
		r, _ := plan.Lookup(typ, name)
		sources := append([]string{r.Parent, r.Provider}, r.DependsOn...)
		for _, source := range sources {
			if source == "" || source == key {
				continue
			}
			err := g.AddEdge(source, key)
			switch {
			case err == nil, errors.Is(err, graph.ErrEdgeAlreadyExists):
			case errors.Is(err, graph.ErrEdgeCreatesCycle):
				return nil, fmt.Errorf("dependency cycle between %s and %s", source, key)
			default:
				return nil, fmt.Errorf("adding edge %s -> %s: %w", source, key, err)
			}
		}
	}

	return graph.StableTopologicalSort(g, func(a, b string) bool {
		return a < b
	})
}
