package httpapi

import (
	"net/http"
	"os"
	"path/filepath"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/Jahvion/ControlDeJavi/internal/logging"
	"github.com/Jahvion/ControlDeJavi/internal/metrics"
	"github.com/Jahvion/ControlDeJavi/internal/store"
)

// Config holds the HTTP surface settings.
type Config struct {
	APIKey      string
	Port        int
	FrontendDir string
}

// NewRouter assembles the gin engine: recovery, permissive CORS, the shared
// secret check, and all routes.
func NewRouter(cfg Config, products *store.Store, digest DigestRunner, set *metrics.Set, logger logging.Logger) *gin.Engine {
	logger = logging.OrNop(logger)

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-API-KEY"}
	corsConfig.OptionsResponseStatusCode = http.StatusOK
	engine.Use(cors.New(corsConfig))

	engine.Use(apiKeyMiddleware(cfg.APIKey, logger))

	handler := newHandler(products, digest, set, logger)

	engine.GET("/health", handler.health)
	engine.GET("/", handler.index(cfg.FrontendDir))
	engine.GET("/products", handler.listProducts)
	engine.POST("/products", handler.createProduct)
	engine.DELETE("/products/:id", handler.deleteProduct)
	engine.GET("/test-notification", handler.testNotification)
	if set != nil {
		engine.GET("/metrics", gin.WrapH(set.Handler()))
	}

	if cfg.FrontendDir != "" {
		engine.NoRoute(serveFrontend(cfg.FrontendDir))
	}

	return engine
}

// apiKeyMiddleware enforces the shared secret on every route except the
// health probe and the index page. OPTIONS passes through so the CORS layer
// can answer preflights.
func apiKeyMiddleware(apiKey string, logger logging.Logger) gin.HandlerFunc {
	open := map[string]bool{
		"/":       true,
		"/health": true,
	}

	return func(c *gin.Context) {
		// Preflights are answered by the CORS layer before reaching here;
		// any other OPTIONS still short-circuits to 200.
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusOK)
			return
		}
		if open[c.Request.URL.Path] {
			c.Next()
			return
		}
		if c.GetHeader("X-API-KEY") != apiKey {
			logger.Debug("rejected request to %s: bad api key", c.Request.URL.Path)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		c.Next()
	}
}

// serveFrontend serves files from dir, falling back to index.html so a
// single-page frontend can own its own routing.
func serveFrontend(dir string) gin.HandlerFunc {
	return func(c *gin.Context) {
		requested := filepath.Join(dir, filepath.Clean("/"+c.Request.URL.Path))
		if info, err := os.Stat(requested); err == nil && !info.IsDir() {
			c.File(requested)
			return
		}
		c.File(filepath.Join(dir, "index.html"))
	}
}
