package graph

import (
	"github.com/amber-ici/amber/backend/pkg/extract"
)

// Node is a graph node rendered from one entity. Data carries the originating
// entity record for callers that need provenance.
type Node struct {
	ID     string         `json:"id"`
	Label  string         `json:"label"`
	Type   string         `json:"type"`
	Source string         `json:"source"`
	Data   extract.Entity `json:"data"`
}

// Edge connects two nodes. The id is "<source>_<target>"; duplicate ids may
// recur when a pair is related through multiple observations.
type Edge struct {
	ID     string  `json:"id"`
	Source string  `json:"source"`
	Target string  `json:"target"`
	Type   string  `json:"type"`
	Weight float64 `json:"weight"`
}

// Stats summarizes a built graph.
type Stats struct {
	NodeCount int `json:"node_count"`
	EdgeCount int `json:"edge_count"`
}

// Graph is the stable JSON contract consumed by the UI and persistence.
type Graph struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
	Stats Stats  `json:"stats"`
}

// proximityWindow is the maximum start-offset distance for two positioned
// entities to be considered related.
const proximityWindow = 200

const defaultSource = "default"

// Builder accumulates nodes and edges for one graph build. Builders are not
// safe for concurrent use; create one per Build call rather than sharing.
type Builder struct {
	nodes   []Node
	edges   []Edge
	nodeIDs map[string]struct{}
}

// NewBuilder creates an empty graph builder.
func NewBuilder() *Builder {
	return &Builder{
		nodes:   []Node{},
		edges:   []Edge{},
		nodeIDs: map[string]struct{}{},
	}
}

// Build constructs a graph from the given entities. Accumulators are reset at
// call start, so a Builder can be reused sequentially. Node ids are unique:
// the first entity observed for an id wins and later duplicates are dropped
// without merging. Edges are only created between entities sharing a source
// tag; duplicate edge ids are preserved, each one records an independent
// relatedness observation.
func (b *Builder) Build(entities []extract.Entity) *Graph {
	b.nodes = []Node{}
	b.edges = []Edge{}
	b.nodeIDs = map[string]struct{}{}

	for _, entity := range entities {
		b.addNode(entity)
	}
	b.createEdges(entities)

	return &Graph{
		Nodes: b.nodes,
		Edges: b.edges,
		Stats: Stats{
			NodeCount: len(b.nodes),
			EdgeCount: len(b.edges),
		},
	}
}

// Build is a convenience that runs one build on a fresh Builder.
func Build(entities []extract.Entity) *Graph {
	return NewBuilder().Build(entities)
}

func (b *Builder) addNode(entity extract.Entity) {
	nodeID := entity.ID
	if nodeID == "" {
		nodeID = entity.Value
	}
	if nodeID == "" {
		nodeID = "unknown"
	}

	if _, exists := b.nodeIDs[nodeID]; exists {
		return
	}
	b.nodeIDs[nodeID] = struct{}{}

	nodeType := string(entity.Type)
	if nodeType == "" {
		nodeType = "unknown"
	}
	source := entity.Source
	if source == "" {
		source = defaultSource
	}

	b.nodes = append(b.nodes, Node{
		ID:     nodeID,
		Label:  entity.Value,
		Type:   nodeType,
		Source: source,
		Data:   entity,
	})
}

func (b *Builder) createEdges(entities []extract.Entity) {
	groups := map[string][]extract.Entity{}
	var order []string
	for _, entity := range entities {
		source := entity.Source
		if source == "" {
			source = defaultSource
		}
		if _, seen := groups[source]; !seen {
			order = append(order, source)
		}
		groups[source] = append(groups[source], entity)
	}

	for _, source := range order {
		group := groups[source]
		for i := range group {
			for j := i + 1; j < len(group); j++ {
				if !areRelated(group[i], group[j]) {
					continue
				}
				b.edges = append(b.edges, Edge{
					ID:     group[i].ID + "_" + group[j].ID,
					Source: group[i].ID,
					Target: group[j].ID,
					Type:   string(extract.RelationRelated),
					Weight: 1,
				})
			}
		}
	}
}

func areRelated(a, b extract.Entity) bool {
	if a.Type == b.Type {
		return true
	}

	if a.Start >= 0 && b.Start >= 0 {
		distance := a.Start - b.Start
		if distance < 0 {
			distance = -distance
		}
		return distance < proximityWindow
	}

	return false
}

// Graph returns a snapshot of the builder's current nodes and edges,
// including custom edges added after the last Build.
func (b *Builder) Graph() *Graph {
	return &Graph{
		Nodes: b.nodes,
		Edges: b.edges,
		Stats: Stats{
			NodeCount: len(b.nodes),
			EdgeCount: len(b.edges),
		},
	}
}

// AddCustomEdge appends an edge between two existing nodes. It silently
// no-ops when either node id is unknown to the current build. An empty
// edgeType defaults to "custom".
func (b *Builder) AddCustomEdge(sourceID, targetID, edgeType string) {
	if _, ok := b.nodeIDs[sourceID]; !ok {
		return
	}
	if _, ok := b.nodeIDs[targetID]; !ok {
		return
	}
	if edgeType == "" {
		edgeType = string(extract.RelationCustom)
	}

	b.edges = append(b.edges, Edge{
		ID:     sourceID + "_" + targetID,
		Source: sourceID,
		Target: targetID,
		Type:   edgeType,
		Weight: 1,
	})
}
