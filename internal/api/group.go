package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/lalith-99/pilgrimlink/internal/apperr"
	"github.com/lalith-99/pilgrimlink/internal/middleware"
	"github.com/lalith-99/pilgrimlink/internal/service"
	"go.uber.org/zap"
)

// GroupHandler covers group creation, membership and the polling snapshot.
type GroupHandler struct {
	svc          *service.Service
	pollInterval time.Duration
	logger       *zap.Logger
}

func NewGroupHandler(svc *service.Service, pollInterval time.Duration, logger *zap.Logger) *GroupHandler {
	return &GroupHandler{svc: svc, pollInterval: pollInterval, logger: logger}
}

type createGroupRequest struct {
	Name string `json:"name"`
}

// Create handles POST /v1/groups
func (h *GroupHandler) Create(c *gin.Context) {
	var req createGroupRequest
	if err := bindJSON(c, &req); err != nil {
		writeError(c, h.logger, err)
		return
	}

	group, err := h.svc.CreateGroup(c.Request.Context(), middleware.GetUserID(c), req.Name)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, group)
}

// List handles GET /v1/groups and its alias GET /v1/groups/mine.
func (h *GroupHandler) List(c *gin.Context) {
	groups, err := h.svc.ListGroupsForGuide(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, groups)
}

type joinGroupRequest struct {
	Code string `json:"code"`
}

// Join handles POST /v1/groups/join
func (h *GroupHandler) Join(c *gin.Context) {
	var req joinGroupRequest
	if err := bindJSON(c, &req); err != nil {
		writeError(c, h.logger, err)
		return
	}

	group, err := h.svc.JoinByCode(c.Request.Context(), middleware.GetUserID(c), req.Code)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":        "Joined group successfully",
		"group":          group,
		"currentGroupId": group.ID,
	})
}

type openGroupRequest struct {
	GroupID string `json:"groupId"`
}

// Open handles POST /v1/groups/open
func (h *GroupHandler) Open(c *gin.Context) {
	var req openGroupRequest
	if err := bindJSON(c, &req); err != nil {
		writeError(c, h.logger, err)
		return
	}

	raw := strings.TrimSpace(req.GroupID)
	if raw == "" {
		writeError(c, h.logger, apperr.Validation("Group ID is required"))
		return
	}
	groupID, err := uuid.Parse(raw)
	if err != nil {
		writeError(c, h.logger, apperr.Validation("Invalid group ID"))
		return
	}

	group, err := h.svc.OpenGroup(c.Request.Context(), middleware.GetUserID(c), groupID)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":        "Group opened successfully",
		"currentGroupId": group.ID,
	})
}

// Current handles GET /v1/groups/current, the endpoint clients poll.
// Each call returns the whole ledger; there is no cursor.
func (h *GroupHandler) Current(c *gin.Context) {
	snap, err := h.svc.Snapshot(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"group":               snap.Group,
		"messages":            snap.Messages,
		"pollIntervalSeconds": int(h.pollInterval / time.Second),
	})
}
