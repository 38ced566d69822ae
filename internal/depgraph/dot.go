package depgraph

import (
	"fmt"

	"github.com/awalterschulze/gographviz"

	"dporsched/internal/model"
)

// WriteDOT renders the graph's parent edges as Graphviz DOT source, for
// debugging a single interleaving's causal structure. This is a plain
// export of the already-built graph, not the ShiViz visualizer (out of
// scope per SPEC_FULL.md §1).
func (g *Graph) WriteDOT(name string) (string, error) {
	gv := gographviz.NewGraph()
	if err := gv.SetName(name); err != nil {
		return "", fmt.Errorf("depgraph: set graph name: %w", err)
	}
	if err := gv.SetDir(true); err != nil {
		return "", fmt.Errorf("depgraph: set directed: %w", err)
	}

	for id, n := range g.nodes {
		label := nodeLabel(n.unique)
		attrs := map[string]string{"label": fmt.Sprintf("%q", label)}
		if err := gv.AddNode(name, dotNodeID(id), attrs); err != nil {
			return "", fmt.Errorf("depgraph: add node %d: %w", id, err)
		}
	}
	for id, n := range g.nodes {
		if !n.hasParent {
			continue
		}
		if err := gv.AddEdge(dotNodeID(id), dotNodeID(n.parentID), true, nil); err != nil {
			return "", fmt.Errorf("depgraph: add edge %d->%d: %w", id, n.parentID, err)
		}
	}

	return gv.String(), nil
}

func dotNodeID(id uint64) string { return fmt.Sprintf("n%d", id) }

func nodeLabel(u model.Unique) string {
	switch e := u.Event.(type) {
	case model.MsgEvent:
		return fmt.Sprintf("%s->%s#%d", e.Sender, e.Receiver, u.ID)
	case model.NetworkPartition:
		return fmt.Sprintf("partition#%d", u.ID)
	case model.WaitQuiescence:
		return fmt.Sprintf("quiescence#%d", u.ID)
	case model.SpawnEvent:
		return fmt.Sprintf("spawn(%s)#%d", e.Name, u.ID)
	default:
		return "root"
	}
}
