package profile

import (
	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/docbook-api/internal/handler"
	"github.com/jwalitptl/docbook-api/internal/model"
	"github.com/jwalitptl/docbook-api/internal/service/profile"
	"github.com/jwalitptl/docbook-api/pkg/httputil"
)

type Handler struct {
	svc *profile.Service
}

func NewHandler(svc *profile.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/profile", h.Show)
	r.PUT("/profile", h.Update)
}

func (h *Handler) Show(c *gin.Context) {
	user, err := h.svc.Get(c.Request.Context(), handler.Principal(c).UserID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, user)
}

// Update accepts JSON or a multipart form carrying an avatar.
func (h *Handler) Update(c *gin.Context) {
	var req model.UpdateProfileRequest
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

	user, err := h.svc.Update(c.Request.Context(), handler.Principal(c).UserID, req, avatar)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, user)
}
