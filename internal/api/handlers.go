package api

import (
	"context"
	"errors"
	"net/http"

	"productview/catalog/internal/catalog"
	"productview/catalog/internal/client"
	"productview/catalog/internal/criteria"
	"productview/catalog/internal/domain"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// CatalogService is what the handlers need from the query service.
type CatalogService interface {
	Query(ctx context.Context, raw criteria.Raw) (domain.PageResult, error)
	Products(ctx context.Context) ([]domain.Product, error)
	Categories(ctx context.Context) ([]string, error)
}

type handler struct {
	svc CatalogService
}

type categoriesResponse struct {
	Categories []string `json:"categories"`
}

type healthResponse struct {
	Status string `json:"status"`
}

// listProducts returns the whole catalog in source order.
func (h *handler) listProducts(c *gin.Context) {
	products, err := h.svc.Products(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, products)
}

// filterProducts answers a discrete page query. Malformed parameters fall back
// to their defaults, so this never fails on input.
func (h *handler) filterProducts(c *gin.Context) {
	raw := criteria.FromValues(c.Request.URL.Query())

	page, err := h.svc.Query(c.Request.Context(), raw)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *handler) listCategories(c *gin.Context) {
	categories, err := h.svc.Categories(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, categoriesResponse{Categories: categories})
}

func (h *handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, healthResponse{Status: "ok"})
}

func (h *handler) fail(c *gin.Context, err error) {
	if errors.Is(err, catalog.ErrSourceUnavailable) || errors.Is(err, client.ErrUnavailable) {
		log.Errorf("❌ Catalog unavailable: %v", err)
		sourceUnavailable(c, "the product catalog could not be read")
		return
	}

	log.Errorf("❌ Request failed: %v", err)
	internalError(c, "unexpected error while querying the catalog")
}
