package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lalith-99/pilgrimlink/internal/middleware"
	"github.com/lalith-99/pilgrimlink/internal/models"
	"github.com/lalith-99/pilgrimlink/internal/service"
	"go.uber.org/zap"
)

// UserHandler serves the caller's own profile and role.
type UserHandler struct {
	svc    *service.Service
	logger *zap.Logger
}

func NewUserHandler(svc *service.Service, logger *zap.Logger) *UserHandler {
	return &UserHandler{svc: svc, logger: logger}
}

type assignRoleRequest struct {
	Role string `json:"role"`
}

// AssignRole handles POST /v1/role
func (h *UserHandler) AssignRole(c *gin.Context) {
	var req assignRoleRequest
	if err := bindJSON(c, &req); err != nil {
		writeError(c, h.logger, err)
		return
	}

	role := models.Role(req.Role)
	if err := h.svc.AssignRole(c.Request.Context(), middleware.GetUserID(c), role); err != nil {
		writeError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Role updated successfully",
		"role":    role,
	})
}

// Me handles GET /v1/users/me. next is where onboarding sends the user:
// "role", "guide", "chat" or "join".
func (h *UserHandler) Me(c *gin.Context) {
	ctx := c.Request.Context()

	user, err := h.svc.Me(ctx, middleware.GetUserID(c))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	next, err := h.svc.NextStep(ctx, user)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user": user,
		"next": next,
	})
}
