package index

import "github.com/starford/slipbox/internal/wikilink"

// Edge kinds.
const (
	EdgeLink   = "link"
	EdgeParent = "parent"
)

// GraphNode is a note in the graph view.
type GraphNode struct {
	ID    string   `json:"id"`
	Title string   `json:"title"`
	Type  string   `json:"type"`
	Tags  []string `json:"tags"`
}

// GraphLink is a directed edge. For parent edges Source is the child.
type GraphLink struct {
	Source string `json:"source"`
	Target string `json:"target"`
	Kind   string `json:"kind"`
}

// Graph is the whole collection as nodes and edges.
type Graph struct {
	Nodes []GraphNode `json:"nodes"`
	Links []GraphLink `json:"links"`
}

// Graph returns every note and every resolvable link and parent edge.
// Dangling references are left out.
func (x *Index) Graph() Graph {
	g := Graph{
		Nodes: make([]GraphNode, 0, len(x.notes)),
		Links: []GraphLink{},
	}
	for _, n := range x.notes {
		tags := n.Tags
		if tags == nil {
			tags = []string{}
		}
		g.Nodes = append(g.Nodes, GraphNode{ID: n.ID, Title: n.Title, Type: n.Type, Tags: tags})
		for _, id := range wikilink.Unique(n.LinkedNotes()) {
			if _, ok := x.byID[id]; ok {
				g.Links = append(g.Links, GraphLink{Source: n.ID, Target: id, Kind: EdgeLink})
			}
		}
		for _, id := range n.Parents {
			if _, ok := x.byID[id]; ok {
				g.Links = append(g.Links, GraphLink{Source: n.ID, Target: id, Kind: EdgeParent})
			}
		}
	}
	return g
}
