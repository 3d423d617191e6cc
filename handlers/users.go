package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/commsvc/call-routing-backend/internal/registry"
	"github.com/commsvc/call-routing-backend/pkg/logger"
	"github.com/commsvc/call-routing-backend/pkg/metrics"
)

// UserHandler exposes the user registry over HTTP.
//
// Failure responses keep the legacy payload shape (an empty JSON array) so
// existing clients never see error detail; the detail goes to the server log
// and the error kind picks the status code: lock timeouts are transient and
// map to 503, everything else to 500.
type UserHandler struct {
	store *registry.Store
}

func NewUserHandler(store *registry.Store) *UserHandler {
	return &UserHandler{store: store}
}

func (h *UserHandler) Register(rg *gin.RouterGroup) {
	u := rg.Group("/api/users")
	u.GET("", h.List)
	u.GET("/delete/:upn", h.Delete)
	u.GET("/:upn", h.GetOrCreate)
}

// List returns all registry records.
func (h *UserHandler) List(c *gin.Context) {
	metrics.RegistryOps.WithLabelValues("list", "ok").Inc()
	c.JSON(http.StatusOK, h.store.GetAll())
}

// GetOrCreate returns the record for :upn, lazily creating it (new platform
// identity + 24h token) on first access.
func (h *UserHandler) GetOrCreate(c *gin.Context) {
	upn := c.Param("upn")
	if user, ok := h.store.Get(upn); ok {
		metrics.RegistryOps.WithLabelValues("get", "ok").Inc()
		c.JSON(http.StatusOK, user)
		return
	}
	user, err := h.store.Create(c.Request.Context(), upn)
	if err != nil {
		h.fail(c, "create", err)
		return
	}
	metrics.RegistryOps.WithLabelValues("create", "ok").Inc()
	c.JSON(http.StatusOK, user)
}

// Delete removes the record for :upn after revoking its platform identity.
// An absent upn answers 200 with an empty array, matching the legacy API.
func (h *UserHandler) Delete(c *gin.Context) {
	upn := c.Param("upn")
	user, err := h.store.Delete(c.Request.Context(), upn)
	if err != nil {
		if errors.Is(err, registry.ErrNotFound) {
			metrics.RegistryOps.WithLabelValues("delete", "not_found").Inc()
			c.JSON(http.StatusOK, []registry.User{})
			return
		}
		h.fail(c, "delete", err)
		return
	}
	metrics.RegistryOps.WithLabelValues("delete", "ok").Inc()
	c.JSON(http.StatusOK, user)
}

func (h *UserHandler) fail(c *gin.Context, op string, err error) {
	status := http.StatusInternalServerError
	outcome := "error"
	if errors.Is(err, registry.ErrLockTimeout) {
		status = http.StatusServiceUnavailable
		outcome = "lock_timeout"
	}
	logger.Errorf("user %s failed: %v", op, err)
	metrics.RegistryOps.WithLabelValues(op, outcome).Inc()
	c.JSON(status, []registry.User{})
}
