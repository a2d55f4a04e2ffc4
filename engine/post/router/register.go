package postrouter

import "github.com/gin-gonic/gin"

// Register mounts the posts routes under base.
func Register(base *gin.RouterGroup, h *Handler) {
	postsGroup := base.Group("/posts")
	{
		// GET /posts
		// List posts with page/limit pagination
		postsGroup.GET("", h.listPosts)

		// GET /posts/:id
		postsGroup.GET("/:id", h.getPost)

		// POST /posts
		postsGroup.POST("", h.createPost)

		// PUT /posts/:id
		// Partial update; omitted fields keep their value
		postsGroup.PUT("/:id", h.updatePost)

		// DELETE /posts/:id
		postsGroup.DELETE("/:id", h.deletePost)
	}
}
