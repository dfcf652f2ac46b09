package middleware

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/GriffinCanCode/playground/internal/infrastructure/tracing"
)

// CORSConfig lists what cross-origin editors may send and read
type CORSConfig struct {
	AllowOrigins  []string
	AllowMethods  []string
	AllowHeaders  []string
	ExposeHeaders []string
	MaxAge        time.Duration
}

// DefaultCORSConfig lets any editor origin drive the API. Editors revalidate
// previews with If-None-Match and may continue their own traces.
func DefaultCORSConfig() CORSConfig {
	return CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{
			"Origin", "Accept", "Content-Type", "If-None-Match",
			tracing.HeaderTraceID, tracing.HeaderSpanID,
		},
		ExposeHeaders: []string{
			"ETag", "Content-Security-Policy",
			tracing.HeaderTraceID, tracing.HeaderSpanID,
		},
		MaxAge: 12 * time.Hour,
	}
}

// CORS wraps gin-contrib/cors
func CORS(cfg CORSConfig) gin.HandlerFunc {
	return cors.New(cors.Config{
		AllowOrigins:  cfg.AllowOrigins,
		AllowMethods:  cfg.AllowMethods,
		AllowHeaders:  cfg.AllowHeaders,
		ExposeHeaders: cfg.ExposeHeaders,
		MaxAge:        cfg.MaxAge,
	})
}
