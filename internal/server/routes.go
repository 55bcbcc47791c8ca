package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/camlsync/camlsync/internal/serverstore"
)

// SetupRoutes wires the §4.8 HTTP surface: token auth on /version,
// /diff (GET/POST) and /history. /healthz is served without a token.
func SetupRoutes(store *serverstore.Store) http.Handler {
	r := gin.New()

	r.Use(gin.Recovery())
	r.Use(accessLogMiddleware())
	r.Use(corsMiddleware())
	r.Use(secureMiddleware())
	r.Use(gzipMiddleware())

	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	api := r.Group("/")
	api.Use(tokenAuth(store))
	{
		api.GET("/version", handleVersion(store))
		api.GET("/diff", handleGetDiff(store))
		api.POST("/diff", rateLimiter("30-M"), handlePostDiff(store))
		api.GET("/history", rateLimiter("60-M"), handleHistory(store))
	}

	return r
}
