package user

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/docbook-api/internal/handler"
	"github.com/jwalitptl/docbook-api/internal/middleware"
	"github.com/jwalitptl/docbook-api/internal/model"
	"github.com/jwalitptl/docbook-api/internal/policy"
	"github.com/jwalitptl/docbook-api/internal/service/user"
	"github.com/jwalitptl/docbook-api/pkg/httputil"
)

type Handler struct {
	service *user.Service
}

func NewHandler(service *user.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	users := r.Group("/admin/users", middleware.RequireCapability(policy.ManageUsers))
	{
		users.GET("", h.ListUsers)
		users.POST("", h.CreateUser)
		users.GET("/:id", h.GetUser)
		users.PUT("/:id", h.UpdateUser)
		users.DELETE("/:id", h.DeleteUser)
	}
}

func (h *Handler) ListUsers(c *gin.Context) {
	var filter model.UserFilter
	if err := handler.BindQuery(c, &filter); err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	users, err := h.service.ListUsers(c.Request.Context(), filter)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, users)
}

func (h *Handler) CreateUser(c *gin.Context) {
	var req model.CreateUserRequest
	if err := handler.Bind(c, &req); err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	avatar, closeAvatar, err := handler.Avatar(c)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	defer closeAvatar()

	u, err := h.service.CreateUser(c.Request.Context(), req, avatar)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithStatus(c, http.StatusCreated, u)
}

func (h *Handler) GetUser(c *gin.Context) {
	id, err := handler.ParamID(c, "id", "user")
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	u, err := h.service.GetUser(c.Request.Context(), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, u)
}

// UpdateUser applies only the fields present in the request.
func (h *Handler) UpdateUser(c *gin.Context) {
	id, err := handler.ParamID(c, "id", "user")
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	var req model.UpdateUserRequest
	if err := handler.Bind(c, &req); err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	avatar, closeAvatar, err := handler.Avatar(c)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	defer closeAvatar()

	u, err := h.service.UpdateUser(c.Request.Context(), id, req, avatar)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, u)
}

func (h *Handler) DeleteUser(c *gin.Context) {
	id, err := handler.ParamID(c, "id", "user")
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	if err := h.service.DeleteUser(c.Request.Context(), id); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithMessage(c, http.StatusOK, "user deleted")
}
