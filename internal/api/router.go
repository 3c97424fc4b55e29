package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"mahjong-service/internal/game"
	"mahjong-service/internal/middleware"
	"mahjong-service/internal/service"
	"mahjong-service/internal/tile"
	"mahjong-service/internal/ws"
	appErr "mahjong-service/pkg/errors"
	"mahjong-service/pkg/response"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	services *service.Container
}

func RegisterRoutes(r *gin.Engine, services *service.Container) {
	handler := &Handler{services: services}
	wsHandler := ws.NewHandler(services.Session)

	r.GET("/ping", func(c *gin.Context) {
		response.Success(c, gin.H{"message": "pong"})
	})

	v1 := r.Group("/api/v1")
	{
		gameGroup := v1.Group("/game")
		{
			gameGroup.GET("/state", handler.GetState)
			gameGroup.POST("/operation", handler.ApplyOperation)
			gameGroup.POST("/start", handler.StartGame)
			gameGroup.POST("/draw", handler.Draw)
			gameGroup.GET("/remaining", handler.RemainingTiles)
			gameGroup.PUT("/manual", handler.SetManualMode)
		}

		v1.POST("/analyze", handler.Analyze)

		tilesGroup := v1.Group("/tiles")
		{
			tilesGroup.GET("/codes", handler.ListTileCodes)
			tilesGroup.POST("/create", handler.CreateTile)
		}

		v1.POST("/operator/login", handler.OperatorLogin)

		protected := v1.Group("/")
		protected.Use(middleware.OperatorAuthRequired())
		{
			protected.POST("/game/reset", handler.ResetGame)
			protected.PUT("/game/state", handler.ImportState)

			protected.GET("/replays", handler.ListReplays)
			protected.GET("/replays/:sessionId", handler.GetReplay)
			protected.GET("/replays/:sessionId/export", handler.ExportReplay)
		}
	}

	r.GET("/ws/game/:clientId", wsHandler.HandleGameWS)
}

func (h *Handler) GetState(c *gin.Context) {
	response.Success(c, h.services.Session.Snapshot())
}

func (h *Handler) ApplyOperation(c *gin.Context) {
	var op game.OperationRequest
	if err := c.ShouldBindJSON(&op); err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}

	result := h.services.Session.Apply(c.Request.Context(), op)
	// Operation faults ride inside the result envelope with a 200; the
	// frontend renders the message instead of treating it as a transport
	// failure.
	response.Success(c, result)
}

func (h *Handler) StartGame(c *gin.Context) {
	state, err := h.services.Session.StartGame(c.Request.Context())
	if err != nil {
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, appErr.ErrGameAlreadyStarted):
			status = http.StatusConflict
		case errors.Is(err, appErr.ErrDrawPileEmpty):
			status = http.StatusBadRequest
		}
		response.Error(c, status, err.Error())
		return
	}
	response.Success(c, state)
}

type drawBody struct {
	Seat int `json:"seat"`
}

func (h *Handler) Draw(c *gin.Context) {
	var body drawBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}

	drawn, err := h.services.Session.Draw(c.Request.Context(), body.Seat)
	if err != nil {
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, appErr.ErrSeatOutOfRange), errors.Is(err, appErr.ErrDrawPileEmpty):
			status = http.StatusBadRequest
		case errors.Is(err, appErr.ErrGameNotStarted):
			status = http.StatusConflict
		}
		response.Error(c, status, err.Error())
		return
	}
	response.Success(c, gin.H{"seat": body.Seat, "tile": drawn})
}

func (h *Handler) RemainingTiles(c *gin.Context) {
	response.Success(c, gin.H{"remaining": h.services.Session.RemainingTileCounts()})
}

type manualModeBody struct {
	Enabled *bool `json:"enabled" binding:"required"`
}

func (h *Handler) SetManualMode(c *gin.Context) {
	var body manualModeBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.services.Session.SetManualMode(c.Request.Context(), *body.Enabled); err != nil {
		response.Error(c, http.StatusInternalServerError, err.Error())
		return
	}
	response.SuccessWithMsg(c, gin.H{"enabled": *body.Enabled}, "manual mode updated")
}

type analyzeBody struct {
	TargetSeat int `json:"targetSeat"`
}

func (h *Handler) Analyze(c *gin.Context) {
	var body analyzeBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}
	if body.TargetSeat < 0 || body.TargetSeat >= game.SeatCount {
		response.Error(c, http.StatusBadRequest, appErr.ErrSeatOutOfRange.Error())
		return
	}

	state := h.services.Session.Snapshot()
	result, err := h.services.Analyzer.Analyze(c.Request.Context(), state, body.TargetSeat)
	if err != nil {
		response.Error(c, http.StatusBadGateway, err.Error())
		return
	}
	response.Success(c, result)
}

func (h *Handler) ListTileCodes(c *gin.Context) {
	response.Success(c, gin.H{"codes": tile.CodeTable()})
}

type createTileBody struct {
	Code int `json:"code" binding:"required"`
}

func (h *Handler) CreateTile(c *gin.Context) {
	var body createTileBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}

	t, err := tile.Decode(body.Code)
	if err != nil {
		response.Error(c, http.StatusBadRequest, fmt.Sprintf("%v: %d", err, body.Code))
		return
	}
	response.Success(c, gin.H{"code": body.Code, "tile": t})
}

type operatorLoginBody struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *Handler) OperatorLogin(c *gin.Context) {
	var body operatorLoginBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.services.Operator.Login(c.Request.Context(), body.Username, body.Password)
	if err != nil {
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, appErr.ErrOperatorNotFound), errors.Is(err, appErr.ErrInvalidOperatorPassword):
			status = http.StatusUnauthorized
		case errors.Is(err, appErr.ErrOperatorDisabled):
			status = http.StatusForbidden
		}
		response.Error(c, status, err.Error())
		return
	}
	response.Success(c, result)
}

func (h *Handler) ResetGame(c *gin.Context) {
	state := h.services.Session.Reset(c.Request.Context())
	response.SuccessWithMsg(c, state, "session reset")
}

func (h *Handler) ImportState(c *gin.Context) {
	var state game.GameState
	if err := c.ShouldBindJSON(&state); err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.services.Session.SetState(c.Request.Context(), &state); err != nil {
		response.Error(c, http.StatusInternalServerError, err.Error())
		return
	}
	response.SuccessWithMsg(c, h.services.Session.Snapshot(), "state imported")
}

func (h *Handler) ListReplays(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("size", "20"))

	result, err := h.services.Replay.List(c.Request.Context(), page, size)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, err.Error())
		return
	}
	response.Success(c, result)
}

func (h *Handler) GetReplay(c *gin.Context) {
	sessionID := strings.TrimSpace(c.Param("sessionId"))

	state, err := h.services.Replay.Get(c.Request.Context(), sessionID)
	if err != nil {
		if errors.Is(err, appErr.ErrRecordNotFound) {
			response.Error(c, http.StatusNotFound, err.Error())
			return
		}
		response.Error(c, http.StatusInternalServerError, err.Error())
		return
	}
	response.Success(c, state)
}

func (h *Handler) ExportReplay(c *gin.Context) {
	sessionID := strings.TrimSpace(c.Param("sessionId"))

	raw, err := h.services.Replay.ExportJSON(c.Request.Context(), sessionID)
	if err != nil {
		if errors.Is(err, appErr.ErrRecordNotFound) {
			response.Error(c, http.StatusNotFound, err.Error())
			return
		}
		response.Error(c, http.StatusInternalServerError, err.Error())
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s.json", sessionID))
	c.Data(http.StatusOK, "application/json", raw)
}
