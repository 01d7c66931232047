package middleware

import (
	"net/http"

	"github.com/go-chi/cors"

	"github.com/jpavezc/clubfees-backend/pkg/config"
)

// CORS returns middleware that allows the configured frontend plus local dev.
func CORS(cfg *config.Config) func(http.Handler) http.Handler {
	origins := []string{"http://localhost:3000", "http://localhost:5500"}
	if cfg != nil && cfg.URLs.FrontendBase != "" {
		origins = append(origins, cfg.URLs.FrontendBase)
	}

	return cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
		MaxAge:           300,
	}).Handler
}
