package graph

import (
	"testing"

	"github.com/amber-ici/amber/backend/pkg/extract"
)

func TestBuild_NodeFields(t *testing.T) {
	entities := []extract.Entity{
		{ID: "entity_0", Type: extract.EntityTypeEmail, Value: "a@b.com", Start: 0, End: 7, Source: "doc.txt"},
	}

	g := Build(entities)
	if g.Stats.NodeCount != 1 {
		t.Fatalf("expected 1 node, got %d", g.Stats.NodeCount)
	}

	n := g.Nodes[0]
	if n.ID != "entity_0" {
		t.Fatalf("expected node id entity_0, got %s", n.ID)
	}
	if n.Label != "a@b.com" {
		t.Fatalf("expected label a@b.com, got %s", n.Label)
	}
	if n.Type != "email" {
		t.Fatalf("expected type email, got %s", n.Type)
	}
	if n.Source != "doc.txt" {
		t.Fatalf("expected source doc.txt, got %s", n.Source)
	}
	if n.Data.Value != "a@b.com" {
		t.Fatalf("node should carry its entity, got %+v", n.Data)
	}
}

func TestBuild_NodeDefaults(t *testing.T) {
	g := Build([]extract.Entity{{Value: "fallback"}})

	n := g.Nodes[0]
	if n.ID != "fallback" {
		t.Fatalf("missing id should fall back to value, got %s", n.ID)
	}
	if n.Type != "unknown" {
		t.Fatalf("missing type should become unknown, got %s", n.Type)
	}
	if n.Source != "default" {
		t.Fatalf("missing source should become default, got %s", n.Source)
	}
}

func TestBuild_FirstWinsDedup(t *testing.T) {
	entities := []extract.Entity{
		{ID: "e1", Type: extract.EntityTypeEmail, Value: "first"},
		{ID: "e1", Type: extract.EntityTypePhone, Value: "second"},
	}

	g := Build(entities)
	if g.Stats.NodeCount != 1 {
		t.Fatalf("expected 1 node after dedup, got %d", g.Stats.NodeCount)
	}
	if g.Nodes[0].Label != "first" {
		t.Fatalf("first entity should win, got label %s", g.Nodes[0].Label)
	}
}

func TestBuild_EdgesSameType(t *testing.T) {
	entities := []extract.Entity{
		{ID: "e1", Type: extract.EntityTypeEmail, Value: "a@b.com", Start: 0},
		{ID: "e2", Type: extract.EntityTypeEmail, Value: "c@d.com", Start: 5000},
	}

	g := Build(entities)
	if g.Stats.EdgeCount != 1 {
		t.Fatalf("same-type entities should relate regardless of distance, got %d edges", g.Stats.EdgeCount)
	}
	e := g.Edges[0]
	if e.ID != "e1_e2" {
		t.Fatalf("expected edge id e1_e2, got %s", e.ID)
	}
	if e.Type != "related" {
		t.Fatalf("expected type related, got %s", e.Type)
	}
}

func TestBuild_EdgesProximity(t *testing.T) {
	tests := []struct {
		name      string
		aStart    int
		bStart    int
		wantEdges int
	}{
		{"within window", 0, 199, 1},
		{"at window", 0, 200, 0},
		{"beyond window", 0, 500, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entities := []extract.Entity{
				{ID: "e1", Type: extract.EntityTypeEmail, Value: "a", Start: tt.aStart},
				{ID: "e2", Type: extract.EntityTypePhone, Value: "b", Start: tt.bStart},
			}
			g := Build(entities)
			if g.Stats.EdgeCount != tt.wantEdges {
				t.Fatalf("expected %d edges, got %d", tt.wantEdges, g.Stats.EdgeCount)
			}
		})
	}
}

func TestBuild_NegativeOffsetsNeverProximityRelated(t *testing.T) {
	entities := []extract.Entity{
		{ID: "e1", Type: extract.EntityTypeKeyPhrase, Value: "alpha", Start: -1},
		{ID: "e2", Type: extract.EntityTypeEmail, Value: "a@b.com", Start: 0},
	}

	g := Build(entities)
	if g.Stats.EdgeCount != 0 {
		t.Fatalf("positionless entity must not relate by proximity, got %d edges", g.Stats.EdgeCount)
	}
}

func TestBuild_CrossSourceIsolation(t *testing.T) {
	entities := []extract.Entity{
		{ID: "e1", Type: extract.EntityTypeEmail, Value: "a", Start: 0, Source: "one.txt"},
		{ID: "e2", Type: extract.EntityTypeEmail, Value: "b", Start: 10, Source: "two.txt"},
	}

	g := Build(entities)
	if g.Stats.EdgeCount != 0 {
		t.Fatalf("entities from different sources must not connect, got %d edges", g.Stats.EdgeCount)
	}
}

func TestBuilder_Reuse(t *testing.T) {
	b := NewBuilder()
	b.Build([]extract.Entity{{ID: "e1", Value: "a"}, {ID: "e2", Value: "b"}})

	g := b.Build([]extract.Entity{{ID: "e3", Value: "c"}})
	if g.Stats.NodeCount != 1 {
		t.Fatalf("builder reuse should reset state, got %d nodes", g.Stats.NodeCount)
	}
	if g.Nodes[0].ID != "e3" {
		t.Fatalf("expected only e3, got %s", g.Nodes[0].ID)
	}
}

func TestAddCustomEdge(t *testing.T) {
	b := NewBuilder()
	b.Build([]extract.Entity{
		{ID: "e1", Type: extract.EntityTypeEmail, Value: "a", Start: 0, Source: "one.txt"},
		{ID: "e2", Type: extract.EntityTypePhone, Value: "b", Start: 5000, Source: "two.txt"},
	})

	b.AddCustomEdge("e1", "e2", "")
	b.AddCustomEdge("e1", "missing", "ignored")

	g := b.Graph()
	if g.Stats.EdgeCount != 1 {
		t.Fatalf("expected 1 custom edge, got %d", g.Stats.EdgeCount)
	}
	e := g.Edges[0]
	if e.Type != "custom" {
		t.Fatalf("empty edge type should default to custom, got %s", e.Type)
	}
	if e.ID != "e1_e2" {
		t.Fatalf("expected edge id e1_e2, got %s", e.ID)
	}
}

func TestBuild_EmptyInput(t *testing.T) {
	g := Build(nil)
	if g.Stats.NodeCount != 0 || g.Stats.EdgeCount != 0 {
		t.Fatalf("empty input should produce empty graph, got %+v", g.Stats)
	}
	if g.Nodes == nil || g.Edges == nil {
		t.Fatal("nodes and edges must be empty slices, not nil")
	}
}
