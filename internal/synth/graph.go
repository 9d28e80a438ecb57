package synth

import (
	"fmt"
	"io"
	"strings"

	"github.com/emicklei/dot"
)

// GraphFormat selects how Graph renders the plan.
type GraphFormat string

const (
	GraphDOT     GraphFormat = "dot"
	GraphMermaid GraphFormat = "mermaid"
)

// GraphOptions control which resources are drawn.
type GraphOptions struct {
	Format GraphFormat
	// Components draws component resources and parent edges as well.
	Components bool
}

// WriteGraph renders the dependency graph of the plan to w.
func (p *Plan) WriteGraph(w io.Writer, opts GraphOptions) error {
	var output string
	switch opts.Format {
	case "", GraphDOT:
		output = p.buildGraph(opts, false).String()
	case GraphMermaid:
		output = dot.MermaidGraph(p.buildGraph(opts, true), dot.MermaidTopToBottom)
	default:
		return fmt.Errorf("unknown graph format %q", opts.Format)
	}
	_, err := io.WriteString(w, output)
	return err
}

// buildGraph lays out the plan. Mermaid rendering reads "shape" as one of
// the dot.MermaidShape values and "style" as CSS, so DOT attributes are only
// set for DOT output.
func (p *Plan) buildGraph(opts GraphOptions, mermaid bool) *dot.Graph {
	g := dot.NewGraph(dot.Directed)
	if !mermaid {
		g.Attr("rankdir", "TB")
		g.NodeInitializer(func(n dot.Node) {
			n.Attr("shape", "box")
			n.Attr("fontname", "Arial")
		})
	}

	// node ids follow plan order, keys are not valid mermaid identifiers
	ids := map[string]string{}
	p.Each(func(r *Resource) {
		if !r.Custom && !opts.Components {
			return
		}
		if strings.HasPrefix(r.Type, "pulumi:providers:") {
			return
		}
		id := fmt.Sprintf("r%d", len(ids))
		ids[r.Key()] = id
		n := g.Node(id)
		switch {
		case mermaid:
			n.Label(r.Path + " [" + r.Type + "]")
			n.Attr("shape", dot.MermaidShapeSubroutine)
			if !r.Custom {
				n.Attr("style", "stroke-dasharray: 5 5")
			}
		default:
			n.Label(r.Path + "\n[" + r.Type + "]")
			if !r.Custom {
				n.Attr("style", "dashed")
			}
		}
	})

	p.Each(func(r *Resource) {
		to, ok := ids[r.Key()]
		if !ok {
			return
		}
		for _, dep := range r.DependsOn {
			if from, ok := ids[dep]; ok {
				g.Edge(g.Node(from), g.Node(to))
			}
		}
		if opts.Components && r.Parent != "" {
			if from, ok := ids[r.Parent]; ok {
				g.Edge(g.Node(from), g.Node(to)).Attr("style", "dotted")
			}
		}
	})
	return g
}
