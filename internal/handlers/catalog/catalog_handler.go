// internal/handlers/catalog/catalog_handler.go
package catalog

import (
	"net/http"

	xerrors "invitera-service/internal/pkg/errors"
	"invitera-service/internal/pkg/response"
	catalogUsecase "invitera-service/internal/service/catalog"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type CatalogHandler struct {
	catalogService *catalogUsecase.CatalogService
	logger         *zap.Logger
}

func NewCatalogHandler(catalogService *catalogUsecase.CatalogService, logger *zap.Logger) *CatalogHandler {
	return &CatalogHandler{
		catalogService: catalogService,
		logger:         logger,
	}
}

// ListServices returns the invitation categories
func (h *CatalogHandler) ListServices(c *gin.Context) {
	services, err := h.catalogService.ListServices(c.Request.Context())
	if err != nil {
		h.logger.Error("failed to list services", zap.Error(err))
		response.Error(c, http.StatusInternalServerError, "could not load services", nil)
		return
	}

	response.Success(c, http.StatusOK, "services", services)
}

// GetService returns one category and its card designs
func (h *CatalogHandler) GetService(c *gin.Context) {
	slug := c.Param("slug")

	service, cards, err := h.catalogService.ServiceWithCards(c.Request.Context(), slug)
	if err != nil {
		if xerrors.Is(err, xerrors.ErrNotFound) {
			response.NotFound(c, "service not found")
			return
		}
		h.logger.Error("failed to load service", zap.String("slug", slug), zap.Error(err))
		response.Error(c, http.StatusInternalServerError, "could not load service", nil)
		return
	}

	response.Success(c, http.StatusOK, "service", gin.H{
		"service": service,
		"cards":   cards,
	})
}
