package availability

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/docbook-api/internal/handler"
	"github.com/jwalitptl/docbook-api/internal/middleware"
	"github.com/jwalitptl/docbook-api/internal/model"
	"github.com/jwalitptl/docbook-api/internal/policy"
	"github.com/jwalitptl/docbook-api/internal/service/availability"
	"github.com/jwalitptl/docbook-api/pkg/httputil"
)

type Handler struct {
	svc *availability.Service
}

func NewHandler(svc *availability.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	own := r.Group("/doctor/availability", middleware.RequireCapability(policy.ManageAvailability))
	{
		own.GET("", h.ListOwn)
		own.POST("", h.Replace)
		own.DELETE("/:id", h.Delete)
	}

	doctors := r.Group("/doctors/:id", middleware.RequireCapability(policy.ViewDoctors))
	{
		doctors.GET("/availability", h.Dates)
		doctors.GET("/times", h.Times)
	}
}

func (h *Handler) ListOwn(c *gin.Context) {
	list, err := h.svc.ListOwn(c.Request.Context(), handler.Principal(c).UserID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, list)
}

// Replace swaps the caller's whole availability set for the submitted one.
func (h *Handler) Replace(c *gin.Context) {
	var req model.ReplaceAvailabilityRequest
	if err := handler.Bind(c, &req); err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	list, err := h.svc.Replace(c.Request.Context(), handler.Principal(c).UserID, req.Availabilities)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithStatus(c, http.StatusCreated, list)
}

func (h *Handler) Delete(c *gin.Context) {
	id, err := handler.ParamID(c, "id", "availability")
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	if err := h.svc.Delete(c.Request.Context(), id, handler.Principal(c).UserID); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithMessage(c, http.StatusOK, "availability deleted")
}

func (h *Handler) Dates(c *gin.Context) {
	id, err := handler.ParamID(c, "id", "doctor")
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	dates, err := h.svc.Dates(c.Request.Context(), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, model.AvailableDates{Dates: dates})
}

func (h *Handler) Times(c *gin.Context) {
	id, err := handler.ParamID(c, "id", "doctor")
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	date := c.Query("date")
	times, err := h.svc.FreeTimes(c.Request.Context(), id, date)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, model.AvailableTimes{Date: date, Times: times})
}
