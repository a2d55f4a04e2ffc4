package postrouter

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/devopsblog/blog/engine/core"
	"github.com/devopsblog/blog/engine/infra/server/router"
	"github.com/devopsblog/blog/engine/post"
)

const msgDeleted = "Post deleted successfully"

// Service is the subset of post.Service the handlers call.
type Service interface {
	List(ctx context.Context, params post.ListParams) (*post.Page, error)
	Get(ctx context.Context, id int64) (*post.Post, error)
	Create(ctx context.Context, in *post.CreateInput) (*post.Post, error)
	Update(ctx context.Context, id int64, in *post.UpdateInput) (*post.Post, error)
	Delete(ctx context.Context, id int64) error
}

// Handler serves the posts resource.
type Handler struct {
	svc Service
}

func NewHandler(svc Service) *Handler {
	return &Handler{svc: svc}
}

// listPosts returns a page of posts, newest first.
//
//	GET /posts?page=1&limit=10
func (h *Handler) listPosts(c *gin.Context) {
	params := post.ParseListParams(c.Query("page"), c.Query("limit"))
	page, err := h.svc.List(c.Request.Context(), params)
	if err != nil {
		respondPostError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// getPost returns a single post.
//
//	GET /posts/:id
func (h *Handler) getPost(c *gin.Context) {
	id, ok := router.GetIDParam(c, "id")
	if !ok {
		return
	}
	p, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		respondPostError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// createPost validates and stores a new post.
//
//	POST /posts
func (h *Handler) createPost(c *gin.Context) {
	var in post.CreateInput
	if !bindBody(c, &in) {
		return
	}
	p, err := h.svc.Create(c.Request.Context(), &in)
	if err != nil {
		respondPostError(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

// updatePost applies the fields present in the body.
//
//	PUT /posts/:id
func (h *Handler) updatePost(c *gin.Context) {
	id, ok := router.GetIDParam(c, "id")
	if !ok {
		return
	}
	var in post.UpdateInput
	if !bindBody(c, &in) {
		return
	}
	p, err := h.svc.Update(c.Request.Context(), id, &in)
	if err != nil {
		respondPostError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// deletePost removes a post permanently.
//
//	DELETE /posts/:id
func (h *Handler) deletePost(c *gin.Context) {
	id, ok := router.GetIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), id); err != nil {
		respondPostError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": msgDeleted})
}

// bindBody decodes a JSON object into dst. An empty body decodes to the zero
// input so required-field validation reports what is missing.
func bindBody(c *gin.Context, dst any) bool {
	err := c.ShouldBindJSON(dst)
	if err == nil || errors.Is(err, io.EOF) {
		return true
	}
	router.RespondProblemWithCode(c, http.StatusBadRequest, router.ErrBadRequestCode, router.ErrMsgBadJSON)
	return false
}

func respondPostError(c *gin.Context, err error) {
	var verr *post.ValidationError
	switch {
	case errors.As(err, &verr):
		fields := make([]core.FieldIssue, 0, len(verr.Fields))
		for _, f := range verr.Fields {
			fields = append(fields, core.FieldIssue{Field: f.Field, Message: f.Message})
		}
		router.RespondValidation(c, fields)
	case errors.Is(err, post.ErrNotFound):
		router.RespondProblemWithCode(c, http.StatusNotFound, router.ErrNotFoundCode, "Post not found")
	default:
		router.RespondInternal(c, err)
	}
}
