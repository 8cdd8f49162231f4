package v1

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/xiaot623/gogo/agentstatus/internal/domain"
)

const writeTimeout = 10 * time.Second

// GetStatus returns the current trace of a run. Unknown runs yield an empty
// trace.
func (h *Handler) GetStatus(c echo.Context) error {
	runID := c.Param("run_id")
	if runID == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "run_id is required"})
	}

	update, err := h.service.GetLatest(c.Request().Context(), runID)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, update)
}

// DeleteStatus discards the trace of a run.
func (h *Handler) DeleteStatus(c echo.Context) error {
	runID := c.Param("run_id")
	if runID == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "run_id is required"})
	}

	if err := h.service.DeleteStatusUpdate(c.Request().Context(), runID); err != nil {
		return errorResponse(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// WatchStatus streams records of a run over a WebSocket, one record per
// text message, until the root agent finishes or the client goes away.
func (h *Handler) WatchStatus(c echo.Context) error {
	runID := c.Param("run_id")
	if runID == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "run_id is required"})
	}
	from := 0
	if v := c.QueryParam("from"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "from must be a non-negative integer"})
		}
		from = n
	}

	ws, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		c.Logger().Errorf("failed to upgrade websocket: %v", err)
		return nil
	}
	defer ws.Close()

	ctx, cancel := context.WithCancel(c.Request().Context())
	defer cancel()

	// The client never sends anything; reading only detects that it left.
	go func() {
		defer cancel()
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				return
			}
		}
	}()

	err = h.service.Watch(ctx, runID, from, 0, func(rec domain.Record) error {
		data, err := domain.MarshalRecord(rec)
		if err != nil {
			return err
		}
		ws.SetWriteDeadline(time.Now().Add(writeTimeout))
		return ws.WriteMessage(websocket.TextMessage, data)
	})

	closeCode, reason := websocket.CloseNormalClosure, "run finished"
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		closeCode, reason = websocket.CloseInternalServerErr, err.Error()
	}
	ws.SetWriteDeadline(time.Now().Add(writeTimeout))
	_ = ws.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(closeCode, reason))
	return nil
}
