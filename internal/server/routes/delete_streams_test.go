package routes

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/amber-ici/amber/backend/internal/server/middleware"
	"github.com/amber-ici/amber/backend/internal/stream"

	"github.com/labstack/echo/v4"
)

func deleteStreamCall(t *testing.T, registry *stream.Registry, id string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodDelete, "/api/streams/"+id, nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(id)
	app := &middleware.App{Registry: registry}

	if err := DeleteStreamHandler(&middleware.AppContext{Context: c, App: app}); err != nil {
		t.Fatal(err)
	}
	return rec
}

func TestDeleteStream_CancelsActiveStream(t *testing.T) {
	registry := stream.NewRegistry()
	id, streamCtx, err := registry.Register(context.Background(), "m1")
	if err != nil {
		t.Fatal(err)
	}

	rec := deleteStreamCall(t, registry, id)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	select {
	case <-streamCtx.Done():
	default:
		t.Fatal("stream context should be cancelled")
	}
}

func TestDeleteStream_UnknownID(t *testing.T) {
	rec := deleteStreamCall(t, stream.NewRegistry(), "missing")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d: %s", rec.Code, rec.Body.String())
	}
}
