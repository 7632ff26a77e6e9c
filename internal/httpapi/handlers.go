package httpapi

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	apperrors "github.com/Jahvion/ControlDeJavi/internal/errors"
	"github.com/Jahvion/ControlDeJavi/internal/logging"
	"github.com/Jahvion/ControlDeJavi/internal/metrics"
	"github.com/Jahvion/ControlDeJavi/internal/store"
)

// DigestRunner triggers an immediate summarize-and-dispatch cycle. The
// scheduler implements it; tests substitute a stub.
type DigestRunner interface {
	RunDigestWithHeader(ctx context.Context, header string) bool
}

// TestNotificationHeader prefixes on-demand digests triggered over HTTP.
const TestNotificationHeader = "🔔 ControlDeJavi test notification\n"

type handler struct {
	products *store.Store
	digest   DigestRunner
	metrics  *metrics.Set
	logger   logging.Logger
}

func newHandler(products *store.Store, digest DigestRunner, set *metrics.Set, logger logging.Logger) *handler {
	return &handler{
		products: products,
		digest:   digest,
		metrics:  set,
		logger:   logging.OrNop(logger),
	}
}

func (h *handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// index answers with the frontend entry point when one is configured, or a
// minimal endpoint listing.
func (h *handler) index(frontendDir string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if frontendDir != "" {
			indexPath := filepath.Join(frontendDir, "index.html")
			if _, err := os.Stat(indexPath); err == nil {
				c.File(indexPath)
				return
			}
		}
		c.Header("Content-Type", "text/html; charset=utf-8")
		c.String(http.StatusOK, "<h3>ControlDeJavi API</h3>"+
			"<ul>"+
			"<li>GET /products</li>"+
			"<li>POST /products</li>"+
			"<li>DELETE /products/&lt;id&gt;</li>"+
			"<li>GET /test-notification</li>"+
			"<li>GET /health</li>"+
			"</ul>")
	}
}

func (h *handler) listProducts(c *gin.Context) {
	category := c.Query("category")

	products, err := h.products.List(category)
	if err != nil {
		if apperrors.IsValidation(err) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		h.logger.Error("list products: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not list products"})
		return
	}
	c.JSON(http.StatusOK, products)
}

type createProductRequest struct {
	Name           string `json:"name"`
	Category       string `json:"category"`
	ExpirationDate string `json:"expiration_date"`
}

func (h *handler) createProduct(c *gin.Context) {
	var req createProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON body"})
		return
	}

	if strings.TrimSpace(req.Name) == "" ||
		strings.TrimSpace(req.Category) == "" ||
		strings.TrimSpace(req.ExpirationDate) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing fields: name, category, expiration_date"})
		return
	}

	product, err := h.products.Add(req.Name, req.Category, req.ExpirationDate)
	if err != nil {
		if apperrors.IsValidation(err) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		h.logger.Error("create product: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not save product"})
		return
	}

	if h.metrics != nil {
		h.metrics.ProductsCreated.Inc()
	}
	c.JSON(http.StatusCreated, gin.H{"ok": true, "product": product})
}

func (h *handler) deleteProduct(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	removed, err := h.products.DeleteByID(id)
	if err != nil {
		h.logger.Error("delete product %d: %v", id, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not delete product"})
		return
	}
	if !removed {
		c.JSON(http.StatusNotFound, gin.H{"error": "id not found"})
		return
	}

	if h.metrics != nil {
		h.metrics.ProductsDeleted.Inc()
	}
	c.Status(http.StatusNoContent)
}

func (h *handler) testNotification(c *gin.Context) {
	ok := h.digest.RunDigestWithHeader(c.Request.Context(), TestNotificationHeader)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
