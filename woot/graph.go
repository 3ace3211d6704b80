package woot

import (
	"fmt"
	"io"

	"github.com/dominikbraun/graph"
	"github.com/dominikbraun/graph/draw"
)

// CharacterGraph builds the anchor graph of the sequence: one vertex per
// character, and for every non-sentinel character an edge from its
// original predecessor and one to its original successor. Useful when
// debugging an integration: the graph shows the regions concurrent
// inserts were generated against, which the linear sequence hides.
func (s *Sequence) CharacterGraph() (graph.Graph[string, string], error) {
	g := graph.New(graph.StringHash, graph.Directed())
	for _, c := range s.chars {
		label := c.ID.String()
		if err := g.AddVertex(label, graph.VertexAttribute("label", vertexLabel(c))); err != nil {
			return nil, fmt.Errorf("add vertex %s: %w", label, err)
		}
	}
	for _, c := range s.chars {
		if c.IsSentinel() {
			continue
		}
		if err := g.AddEdge(c.PrevID.String(), c.ID.String()); err != nil {
			return nil, fmt.Errorf("add edge %v->%v: %w", c.PrevID, c.ID, err)
		}
		if err := g.AddEdge(c.ID.String(), c.NextID.String()); err != nil {
			return nil, fmt.Errorf("add edge %v->%v: %w", c.ID, c.NextID, err)
		}
	}
	return g, nil
}

// WriteDOT renders the anchor graph in DOT format.
func (s *Sequence) WriteDOT(w io.Writer) error {
	g, err := s.CharacterGraph()
	if err != nil {
		return err
	}
	return draw.DOT(g, w)
}

func vertexLabel(c *WChar) string {
	switch {
	case c.IsSentinel():
		return c.ID.String()
	case !c.Visible:
		return fmt.Sprintf("%s (%c, deleted)", c.ID, c.Value)
	default:
		return fmt.Sprintf("%s (%c)", c.ID, c.Value)
	}
}
