package appointment

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/docbook-api/internal/handler"
	"github.com/jwalitptl/docbook-api/internal/middleware"
	"github.com/jwalitptl/docbook-api/internal/model"
	"github.com/jwalitptl/docbook-api/internal/policy"
	"github.com/jwalitptl/docbook-api/internal/service/appointment"
	"github.com/jwalitptl/docbook-api/pkg/httputil"
)

type Handler struct {
	service *appointment.Service
}

func NewHandler(service *appointment.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	appointments := r.Group("/appointments", middleware.RequireCapability(policy.ViewAppointments))
	{
		appointments.GET("", h.ListAppointments)
		appointments.POST("", middleware.RequireCapability(policy.BookAppointment), h.CreateAppointment)
		appointments.GET("/:id", h.GetAppointment)
		appointments.PUT("/:id/status", middleware.RequireCapability(policy.SetAppointment), h.UpdateStatus)
		appointments.PUT("/:id/cancel", middleware.RequireCapability(policy.CancelAppointment), h.CancelAppointment)
		appointments.DELETE("/:id", middleware.RequireCapability(policy.CancelAppointment), h.DeleteAppointment)
	}

	r.GET("/doctor/appointments", middleware.RequireCapability(policy.SetAppointment), h.ListAppointments)
	r.GET("/patient/appointments/upcoming", middleware.RequireCapability(policy.BookAppointment), h.Upcoming)
}

func (h *Handler) CreateAppointment(c *gin.Context) {
	var req model.CreateAppointmentRequest
	if err := handler.Bind(c, &req); err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	appointment, err := h.service.Book(c.Request.Context(), handler.Principal(c), req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithStatus(c, http.StatusCreated, appointment)
}

func (h *Handler) GetAppointment(c *gin.Context) {
	id, err := handler.ParamID(c, "id", "appointment")
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	appointment, err := h.service.Get(c.Request.Context(), handler.Principal(c), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, appointment)
}

// ListAppointments is scoped by the service to what the caller is party to.
func (h *Handler) ListAppointments(c *gin.Context) {
	var q model.AppointmentListQuery
	if err := handler.BindQuery(c, &q); err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	appointments, err := h.service.List(c.Request.Context(), handler.Principal(c), q)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, appointments)
}

func (h *Handler) UpdateStatus(c *gin.Context) {
	id, err := handler.ParamID(c, "id", "appointment")
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	var req model.UpdateAppointmentStatusRequest
	if err := handler.Bind(c, &req); err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	appointment, err := h.service.UpdateStatus(c.Request.Context(), handler.Principal(c), id, req.Status)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, appointment)
}

func (h *Handler) CancelAppointment(c *gin.Context) {
	id, err := handler.ParamID(c, "id", "appointment")
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	appointment, err := h.service.Cancel(c.Request.Context(), handler.Principal(c), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, appointment)
}

func (h *Handler) DeleteAppointment(c *gin.Context) {
	id, err := handler.ParamID(c, "id", "appointment")
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	if err := h.service.Delete(c.Request.Context(), handler.Principal(c), id); err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithMessage(c, http.StatusOK, "appointment deleted")
}

func (h *Handler) Upcoming(c *gin.Context) {
	list, err := h.service.Upcoming(c.Request.Context(), handler.Principal(c).UserID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, list)
}
