package review

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jwalitptl/docbook-api/internal/handler"
	"github.com/jwalitptl/docbook-api/internal/middleware"
	"github.com/jwalitptl/docbook-api/internal/model"
	"github.com/jwalitptl/docbook-api/internal/policy"
	"github.com/jwalitptl/docbook-api/internal/service/review"
	"github.com/jwalitptl/docbook-api/pkg/httputil"
)

type Handler struct {
	svc *review.Service
}

func NewHandler(svc *review.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	reviews := r.Group("/reviews")
	{
		reviews.GET("", h.List)
		reviews.POST("", middleware.RequireCapability(policy.SubmitReview), h.Submit)
		reviews.GET("/:id", h.Get)
		reviews.PUT("/:id/status", middleware.RequireCapability(policy.ModerateReviews), h.UpdateStatus)
		reviews.DELETE("/:id", h.Delete)
	}

	r.GET("/doctors/:id/reviews", middleware.RequireCapability(policy.ViewDoctors), h.DoctorReviews)

	admin := r.Group("/admin/reviews", middleware.RequireCapability(policy.ReviewQueue))
	{
		admin.GET("", h.All)
		admin.GET("/pending", h.Pending)
	}
}

func (h *Handler) Submit(c *gin.Context) {
	var req model.CreateReviewRequest
	if err := handler.Bind(c, &req); err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	r, err := h.svc.Submit(c.Request.Context(), handler.Principal(c), req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithStatus(c, http.StatusCreated, r)
}

// List shows approved reviews, optionally for one doctor.
func (h *Handler) List(c *gin.Context) {
	var q model.ReviewListQuery
	if err := handler.BindQuery(c, &q); err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	var doctorID *uuid.UUID
	if q.DoctorID != "" {
		id := uuid.MustParse(q.DoctorID)
		doctorID = &id
	}

	page, err := h.svc.Approved(c.Request.Context(), doctorID, q.Page)
	respondPage(c, page, err)
}

func (h *Handler) DoctorReviews(c *gin.Context) {
	id, err := handler.ParamID(c, "id", "doctor")
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	var q model.ReviewListQuery
	if err := handler.BindQuery(c, &q); err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	page, err := h.svc.DoctorReviews(c.Request.Context(), id, q.Page)
	respondPage(c, page, err)
}

func (h *Handler) All(c *gin.Context) {
	items, err := h.svc.All(c.Request.Context())
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	if items == nil {
		items = []*model.ReviewDetail{}
	}
	httputil.RespondWithSuccess(c, items)
}

func (h *Handler) Pending(c *gin.Context) {
	var q model.ReviewListQuery
	if err := handler.BindQuery(c, &q); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	page, err := h.svc.Pending(c.Request.Context(), q.Page)
	respondPage(c, page, err)
}

func (h *Handler) Get(c *gin.Context) {
	id, err := handler.ParamID(c, "id", "review")
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	r, err := h.svc.Get(c.Request.Context(), handler.Principal(c), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, r)
}

func (h *Handler) UpdateStatus(c *gin.Context) {
	id, err := handler.ParamID(c, "id", "review")
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	var req model.UpdateReviewStatusRequest
	if err := handler.Bind(c, &req); err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	r, err := h.svc.UpdateStatus(c.Request.Context(), handler.Principal(c), id, req.Status)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, r)
}

func (h *Handler) Delete(c *gin.Context) {
	id, err := handler.ParamID(c, "id", "review")
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	if err := h.svc.Delete(c.Request.Context(), handler.Principal(c), id); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithMessage(c, http.StatusOK, "review deleted")
}

func respondPage(c *gin.Context, page *review.Page, err error) {
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	items := page.Items
	if items == nil {
		items = []*model.ReviewDetail{}
	}
	httputil.RespondWithPagination(c, items, page.Number, page.Size, page.Total)
}
