package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/commsvc/call-routing-backend/internal/events"
	"github.com/commsvc/call-routing-backend/pkg/logger"
)

// EventsHandler receives webhook deliveries from the event grid.
type EventsHandler struct {
	router *events.Router
}

func NewEventsHandler(router *events.Router) *EventsHandler {
	return &EventsHandler{router: router}
}

func (h *EventsHandler) Register(rg *gin.RouterGroup) {
	rg.POST("/api/events/incoming-call", h.HandleIncomingCall)
}

// HandleIncomingCall processes one delivery batch. The subscription
// validation handshake echoes the code and returns immediately; otherwise
// the batch is acknowledged with an empty 200. A failed redirect answers 502
// so the grid retries the delivery.
func (h *EventsHandler) HandleIncomingCall(c *gin.Context) {
	var batch []events.Event
	if err := c.ShouldBindJSON(&batch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid event batch"})
		return
	}

	result, err := h.router.Process(c.Request.Context(), batch)
	if err != nil {
		logger.Errorf("event batch processing failed: %v", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "event processing failed"})
		return
	}
	if result.ValidationCode != "" {
		c.JSON(http.StatusOK, gin.H{"validationResponse": result.ValidationCode})
		return
	}
	c.Status(http.StatusOK)
}
