package routes

import (
	"fmt"
	"net/http"

	"github.com/amber-ici/amber/backend/internal/server/middleware"
	"github.com/amber-ici/amber/backend/pkg/extract"
	"github.com/amber-ici/amber/backend/pkg/graph"

	_ "github.com/go-playground/validator"
	"github.com/labstack/echo/v4"
)

// PostGraphBuildHandler builds a knowledge graph. Callers either send raw
// texts to be mined for entities, with each text's entities tagged by the
// matching source name, or pre-extracted entities. Custom edges are applied
// after the automatic proximity edges.
func PostGraphBuildHandler(c echo.Context) error {
	type customEdge struct {
		Source string `json:"source" validate:"required"`
		Target string `json:"target" validate:"required"`
		Type   string `json:"type"`
	}

	type graphBody struct {
		Texts       []string         `json:"texts"`
		Sources     []string         `json:"sources"`
		Entities    []extract.Entity `json:"entities"`
		CustomEdges []customEdge     `json:"custom_edges"`
	}

	type graphResponse struct {
		Entities []extract.Entity `json:"entities"`
		Graph    *graph.Graph     `json:"graph"`
	}

	data := new(graphBody)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}
	if len(data.Texts) == 0 && len(data.Entities) == 0 {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Either texts or entities is required"})
	}

	app := c.(*middleware.AppContext).App

	entities := data.Entities
	for i, text := range data.Texts {
		source := fmt.Sprintf("source_%d", i)
		if i < len(data.Sources) {
			source = data.Sources[i]
		}

		extracted := app.Extractor.Extract(text)
		for j := range extracted {
			extracted[j].Source = source
		}
		entities = append(entities, extracted...)
	}

	builder := graph.NewBuilder()
	builder.Build(entities)
	for _, edge := range data.CustomEdges {
		builder.AddCustomEdge(edge.Source, edge.Target, edge.Type)
	}

	return c.JSON(http.StatusOK, graphResponse{
		Entities: entities,
		Graph:    builder.Graph(),
	})
}
