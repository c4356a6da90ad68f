package daemon

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"buddy/src/service"
)

// InitRequest is the body of POST /init.
type InitRequest struct {
	BuddyID     string `json:"buddy_id"`
	Personality string `json:"personality"`
}

// ChatRequest is the body of POST /chat.
type ChatRequest struct {
	BuddyID     string `json:"buddy_id"`
	Personality string `json:"personality"`
	Message     string `json:"message"`
}

const maxHistoryLimit = 100

func (s *Server) handleRoot(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "buddy backend running"})
}

func (s *Server) handleHealth(c echo.Context) error {
	if err := s.svc.Health(c.Request().Context()); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]any{"ok": true, "status": "healthy"})
}

func (s *Server) handleInit(c echo.Context) error {
	req := InitRequest{Personality: "friendly"}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := service.Validate(req.BuddyID, req.Personality); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	msg := s.svc.InitBuddy(c.Request().Context(), req.BuddyID, req.Personality)
	return c.JSON(http.StatusOK, map[string]string{"message": msg})
}

func (s *Server) handleChat(c echo.Context) error {
	var req ChatRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := service.Validate(req.BuddyID, req.Personality); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	return c.JSON(http.StatusOK, s.svc.Chat(c.Request().Context(), req.BuddyID, req.Personality, req.Message))
}

func (s *Server) handleHistory(c echo.Context) error {
	buddyID := c.Param("id")

	limit := 0
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > maxHistoryLimit {
			return echo.NewHTTPError(http.StatusBadRequest, "limit must be between 1 and 100")
		}
		limit = n
	}

	turns, err := s.svc.History(c.Request().Context(), buddyID, limit)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "could not load conversation history")
	}
	return c.JSON(http.StatusOK, map[string]any{"buddy_id": buddyID, "history": turns})
}

func (s *Server) handlePersonas(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{"personas": s.svc.Personas()})
}
