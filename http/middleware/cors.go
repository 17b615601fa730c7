package middlewares

import (
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/tnqbao/gau-marine-service/config"
)

// CORSMiddleware allows the comma separated ALLOWED_DOMAINS plus any
// subdomain of GLOBAL_DOMAIN. Credentials are allowed for the access_token cookie.
func CORSMiddleware(config *config.EnvConfig) gin.HandlerFunc {
	var origins []string
	for _, d := range strings.Split(config.CORS.AllowDomains, ",") {
		if d = strings.TrimSpace(d); d != "" {
			origins = append(origins, d)
		}
	}
	global := strings.TrimPrefix(strings.TrimSpace(config.CORS.GlobalDomain), ".")

	return cors.New(cors.Config{
		AllowOriginFunc: func(origin string) bool {
			for _, o := range origins {
				if o == "*" || o == origin {
					return true
				}
			}
			return global != "" && (strings.HasSuffix(origin, "."+global) || strings.HasSuffix(origin, "//"+global))
		},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "Accept"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	})
}
