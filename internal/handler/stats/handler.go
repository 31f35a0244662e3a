package stats

import (
	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/docbook-api/internal/handler"
	"github.com/jwalitptl/docbook-api/internal/middleware"
	"github.com/jwalitptl/docbook-api/internal/policy"
	"github.com/jwalitptl/docbook-api/internal/service/stats"
	"github.com/jwalitptl/docbook-api/pkg/httputil"
)

type Handler struct {
	svc *stats.Service
}

func NewHandler(svc *stats.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/admin/stats", middleware.RequireCapability(policy.ManageUsers), h.Admin)
	r.GET("/doctor/stats", middleware.RequireCapability(policy.DoctorDashboard), h.Doctor)
	r.GET("/patient/stats", middleware.RequireCapability(policy.PatientDashboard), h.Patient)
}

func (h *Handler) Admin(c *gin.Context) {
	s, err := h.svc.Admin(c.Request.Context())
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, s)
}

func (h *Handler) Doctor(c *gin.Context) {
	s, err := h.svc.Doctor(c.Request.Context(), handler.Principal(c).UserID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, s)
}

func (h *Handler) Patient(c *gin.Context) {
	s, err := h.svc.Patient(c.Request.Context(), handler.Principal(c).UserID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, s)
}
