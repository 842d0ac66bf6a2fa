package routes

import (
	"context"
	"errors"
	"time"

	"github.com/amber-ici/amber/backend/internal/server/middleware"
	"github.com/amber-ici/amber/backend/internal/stream"
	"github.com/amber-ici/amber/backend/pkg/logger"

	"github.com/labstack/echo/v4"
	"nhooyr.io/websocket"
)

const telemetryInterval = time.Second

// wsAdapter narrows a websocket connection to the gateway's Conn interface.
type wsAdapter struct {
	conn *websocket.Conn
}

func (a wsAdapter) Read(ctx context.Context) ([]byte, error) {
	_, data, err := a.conn.Read(ctx)
	return data, err
}

func (a wsAdapter) Write(ctx context.Context, data []byte) error {
	return a.conn.Write(ctx, websocket.MessageText, data)
}

// WSStreamHandler upgrades the connection and relays model token streams
// until the client disconnects.
func WSStreamHandler(c echo.Context) error {
	app := c.(*middleware.AppContext).App

	conn, err := websocket.Accept(c.Response(), c.Request(), &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		logger.Error("WebSocket upgrade failed", "err", err)
		return nil
	}
	defer conn.Close(websocket.StatusInternalError, "")

	gateway := stream.NewGateway(app.Backend, app.Registry)
	err = gateway.Serve(c.Request().Context(), wsAdapter{conn: conn})
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Debug("Stream connection closed", "err", err)
	}

	conn.Close(websocket.StatusNormalClosure, "")
	return nil
}

// WSTelemetryHandler pushes resource snapshots to the client on a fixed
// interval.
func WSTelemetryHandler(c echo.Context) error {
	app := c.(*middleware.AppContext).App

	conn, err := websocket.Accept(c.Response(), c.Request(), &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		logger.Error("WebSocket upgrade failed", "err", err)
		return nil
	}
	defer conn.Close(websocket.StatusInternalError, "")

	err = stream.ServeTelemetry(c.Request().Context(), wsAdapter{conn: conn}, app.Telemetry, telemetryInterval)
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Debug("Telemetry connection closed", "err", err)
	}

	conn.Close(websocket.StatusNormalClosure, "")
	return nil
}
