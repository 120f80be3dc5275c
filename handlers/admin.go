package handlers

import (
	"net/http"

	userRepo "homehub/database/repository/user"
	"homehub/models"
	"homehub/services/maintenance"
	"homehub/services/storage"
	"homehub/services/user"
	"homehub/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AdminHandler encapsulates elevated admin-level operations.
type AdminHandler struct {
	UserService user.UserService
	Sweeper     maintenance.Sweeper
	URLs        storage.URLResolver
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(us user.UserService, sweeper maintenance.Sweeper, urls storage.URLResolver) *AdminHandler {
	return &AdminHandler{UserService: us, Sweeper: sweeper, URLs: urls}
}

// ListUsersHandler handles GET /api/admin/users?role=&status=&q=.
func (ah *AdminHandler) ListUsersHandler(c *gin.Context) {
	page := utils.PageFromQuery(c)
	filter := userRepo.UserFilter{
		Role:   models.Role(c.Query("role")),
		Status: models.UserStatus(c.Query("status")),
		Query:  c.Query("q"),
	}
	users, total, err := ah.UserService.ListUsers(c.Request.Context(), filter, page)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	for i := range users {
		resolveUser(ah.URLs, c.Request, &users[i])
	}
	respondPage(c, users, total, page)
}

// SetUserStatusHandler handles PATCH /api/admin/users/:id/status.
func (ah *AdminHandler) SetUserStatusHandler(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var body statusBody
	if !bindInput(c, &body) {
		return
	}

	usr, err := ah.UserService.SetStatus(c.Request.Context(), id, models.UserStatus(body.Status))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	getLogger(c).Info("User status changed", zap.String("userId", id.Hex()), zap.String("status", body.Status))
	c.JSON(http.StatusOK, usr)
}

// SetUserRoleHandler handles PATCH /api/admin/users/:id/role.
func (ah *AdminHandler) SetUserRoleHandler(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var body struct {
		Role models.Role `json:"role" binding:"required"`
	}
	if !bindInput(c, &body) {
		return
	}

	usr, err := ah.UserService.SetRole(c.Request.Context(), id, body.Role)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	getLogger(c).Info("User role changed", zap.String("userId", id.Hex()), zap.String("role", string(body.Role)))
	c.JSON(http.StatusOK, usr)
}

// RunMaintenanceHandler handles POST /api/admin/maintenance/run.
func (ah *AdminHandler) RunMaintenanceHandler(c *gin.Context) {
	report, err := ah.Sweeper.Sweep(c.Request.Context())
	if err != nil {
		utils.RespondError(c, utils.Internal("Maintenance sweep failed", err))
		return
	}
	c.JSON(http.StatusOK, report)
}
