package bookmark

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/docbook-api/internal/handler"
	"github.com/jwalitptl/docbook-api/internal/middleware"
	"github.com/jwalitptl/docbook-api/internal/policy"
	"github.com/jwalitptl/docbook-api/internal/service/bookmark"
	"github.com/jwalitptl/docbook-api/pkg/httputil"
)

type Handler struct {
	svc *bookmark.Service
}

func NewHandler(svc *bookmark.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	bookmarks := r.Group("/patient/bookmarks", middleware.RequireCapability(policy.ManageBookmarks))
	{
		bookmarks.GET("", h.List)
		bookmarks.POST("/:doctor", h.Add)
		bookmarks.DELETE("/:doctor", h.Remove)
	}
}

func (h *Handler) List(c *gin.Context) {
	doctors, err := h.svc.List(c.Request.Context(), handler.Principal(c).UserID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, doctors)
}

func (h *Handler) Add(c *gin.Context) {
	doctorID, err := handler.ParamID(c, "doctor", "user")
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	if err := h.svc.Add(c.Request.Context(), handler.Principal(c).UserID, doctorID); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithMessage(c, http.StatusOK, "doctor bookmarked")
}

func (h *Handler) Remove(c *gin.Context) {
	doctorID, err := handler.ParamID(c, "doctor", "user")
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	if err := h.svc.Remove(c.Request.Context(), handler.Principal(c).UserID, doctorID); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithMessage(c, http.StatusOK, "bookmark removed")
}
