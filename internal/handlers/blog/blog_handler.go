// internal/handlers/blog/blog_handler.go
package blog

import (
	"net/http"

	xerrors "invitera-service/internal/pkg/errors"
	"invitera-service/internal/pkg/response"
	blogUsecase "invitera-service/internal/service/blog"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type BlogHandler struct {
	blogService *blogUsecase.BlogService
	logger      *zap.Logger
}

func NewBlogHandler(blogService *blogUsecase.BlogService, logger *zap.Logger) *BlogHandler {
	return &BlogHandler{
		blogService: blogService,
		logger:      logger,
	}
}

// List returns published posts, optionally filtered with ?category=
func (h *BlogHandler) List(c *gin.Context) {
	posts, err := h.blogService.List(c.Request.Context(), c.Query("category"))
	if err != nil {
		h.logger.Error("failed to list posts", zap.Error(err))
		response.Error(c, http.StatusInternalServerError, "could not load posts", nil)
		return
	}

	response.Success(c, http.StatusOK, "posts", posts)
}

// Get returns a single post and its related posts
func (h *BlogHandler) Get(c *gin.Context) {
	slug := c.Param("slug")

	post, related, err := h.blogService.Get(c.Request.Context(), slug)
	if err != nil {
		if xerrors.Is(err, xerrors.ErrNotFound) {
			response.NotFound(c, "post not found")
			return
		}
		h.logger.Error("failed to load post", zap.String("slug", slug), zap.Error(err))
		response.Error(c, http.StatusInternalServerError, "could not load post", nil)
		return
	}

	response.Success(c, http.StatusOK, "post", gin.H{
		"post":    post,
		"related": related,
	})
}
