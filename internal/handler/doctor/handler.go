package doctor

import (
	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/docbook-api/internal/handler"
	"github.com/jwalitptl/docbook-api/internal/middleware"
	"github.com/jwalitptl/docbook-api/internal/model"
	"github.com/jwalitptl/docbook-api/internal/policy"
	"github.com/jwalitptl/docbook-api/internal/service/doctor"
	"github.com/jwalitptl/docbook-api/pkg/httputil"
)

type Handler struct {
	svc *doctor.Service
}

func NewHandler(svc *doctor.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	doctors := r.Group("/doctors", middleware.RequireCapability(policy.ViewDoctors))
	{
		doctors.GET("", h.List)
		doctors.GET("/:id", h.Get)
	}
}

func (h *Handler) List(c *gin.Context) {
	var filter model.UserFilter
	if err := handler.BindQuery(c, &filter); err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	doctors, err := h.svc.List(c.Request.Context(), filter)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, doctors)
}

func (h *Handler) Get(c *gin.Context) {
	id, err := handler.ParamID(c, "id", "doctor")
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	d, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, d)
}
