package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/learnhub/catalog-service/internal/catalog"
	"github.com/learnhub/catalog-service/internal/catalog/service"
)

type createResourceRequest struct {
	Title       string `json:"title"`
	Type        string `json:"type"`
	Description string `json:"description"`
	AuthorID    string `json:"authorId"`
}

type updateResourceRequest struct {
	Title       *string `json:"title,omitempty"`
	Type        *string `json:"type,omitempty"`
	Description *string `json:"description,omitempty"`
	AuthorID    *string `json:"authorId,omitempty"`
}

type ratingRequest struct {
	RatingValue interface{} `json:"ratingValue"`
	UserID      string      `json:"userId"`
}

type feedbackRequest struct {
	FeedbackText string `json:"feedbackText"`
	UserID       string `json:"userId"`
}

// Handler exposes the catalog service over HTTP.
type Handler struct {
	svc *service.Service
}

func New(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterCatalogRoutes mounts the resource, rating and feedback routes under
// /api/resources.
func RegisterCatalogRoutes(r gin.IRouter, svc *service.Service) {
	h := New(svc)
	g := r.Group("/api/resources", ErrorHandler())
	g.GET("", h.ListResources)
	g.POST("", h.CreateResource)
	g.GET("/:id", h.GetResource)
	g.PATCH("/:id", h.UpdateResource)
	g.PUT("/:id", h.UpdateResource)
	g.DELETE("/:id", h.DeleteResource)

	g.GET("/:id/ratings", h.ListRatings)
	g.POST("/:id/ratings", h.CreateRating)

	g.GET("/:id/feedback", h.ListFeedback)
	g.POST("/:id/feedback", h.CreateFeedback)
	g.PUT("/:id/feedback/:feedbackId", h.UpdateFeedback)
	g.DELETE("/:id/feedback/:feedbackId", h.DeleteFeedback)
}

// bind decodes the JSON body, recording a validation error on failure.
func bind(c *gin.Context, v interface{}) bool {
	if err := c.ShouldBindJSON(v); err != nil {
		_ = c.Error(catalog.Invalid("", "invalid request payload: "+err.Error()))
		return false
	}
	return true
}

// ListResources handles GET /api/resources?type=&authorId=
func (h *Handler) ListResources(c *gin.Context) {
	out, err := h.svc.ListResources(c.Request.Context(), service.ResourceFilter{
		Type:     c.Query("type"),
		AuthorID: c.Query("authorId"),
	})
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *Handler) GetResource(c *gin.Context) {
	out, err := h.svc.GetResource(c.Request.Context(), c.Param("id"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// CreateResource answers with the bare record; a new resource has nothing to
// enrich yet.
func (h *Handler) CreateResource(c *gin.Context) {
	var req createResourceRequest
	if !bind(c, &req) {
		return
	}
	out, err := h.svc.CreateResource(c.Request.Context(), service.ResourceInput{
		Title:       req.Title,
		Type:        req.Type,
		Description: req.Description,
		AuthorID:    req.AuthorID,
	})
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.Header("Location", "/api/resources/"+out.ID)
	c.JSON(http.StatusCreated, out)
}

func (h *Handler) UpdateResource(c *gin.Context) {
	var req updateResourceRequest
	if !bind(c, &req) {
		return
	}
	out, err := h.svc.UpdateResource(c.Request.Context(), c.Param("id"), service.ResourcePatch{
		Title:       req.Title,
		Type:        req.Type,
		Description: req.Description,
		AuthorID:    req.AuthorID,
	})
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *Handler) DeleteResource(c *gin.Context) {
	if err := h.svc.DeleteResource(c.Request.Context(), c.Param("id")); err != nil {
		_ = c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) ListRatings(c *gin.Context) {
	out, err := h.svc.ListRatings(c.Request.Context(), c.Param("id"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// CreateRating answers with the rated resource's detail view.
func (h *Handler) CreateRating(c *gin.Context) {
	var req ratingRequest
	if !bind(c, &req) {
		return
	}
	out, err := h.svc.CreateRating(c.Request.Context(), c.Param("id"), service.RatingInput{
		Value:  req.RatingValue,
		UserID: req.UserID,
	})
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, out)
}

func (h *Handler) ListFeedback(c *gin.Context) {
	out, err := h.svc.ListFeedback(c.Request.Context(), c.Param("id"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *Handler) CreateFeedback(c *gin.Context) {
	var req feedbackRequest
	if !bind(c, &req) {
		return
	}
	out, err := h.svc.CreateFeedback(c.Request.Context(), c.Param("id"), service.FeedbackInput{
		Text:   req.FeedbackText,
		UserID: req.UserID,
	})
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, out)
}

// UpdateFeedback answers with the feedback entry alone, not the resource.
func (h *Handler) UpdateFeedback(c *gin.Context) {
	var req feedbackRequest
	if !bind(c, &req) {
		return
	}
	out, err := h.svc.UpdateFeedback(c.Request.Context(), c.Param("id"), c.Param("feedbackId"), req.FeedbackText)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *Handler) DeleteFeedback(c *gin.Context) {
	if err := h.svc.DeleteFeedback(c.Request.Context(), c.Param("id"), c.Param("feedbackId")); err != nil {
		_ = c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}
