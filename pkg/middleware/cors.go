package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4/middleware"
)

// DevOrigins are the local frontend dev servers.
var DevOrigins = []string{
	"http://localhost:3000",
	"http://localhost:5173",
}

// AllowedMethods is the restrictive method list. OPTIONS is handled by the
// CORS middleware itself.
var AllowedMethods = []string{
	http.MethodGet,
	http.MethodPost,
	http.MethodPut,
	http.MethodPatch,
	http.MethodDelete,
}

// AllowedHeaders is the restrictive request header list.
var AllowedHeaders = []string{
	"Origin",
	"Content-Type",
	"Accept",
	"Authorization",
}

// CORSConfig returns the CORS configuration used by the application.
// Centralised here so that both main.go and tests reference the same config.
// frontendURL is the deployed frontend origin; extraOrigins adds any further
// deployed origins (admin console, staging frontend). Duplicates are dropped.
func CORSConfig(frontendURL string, extraOrigins ...string) middleware.CORSConfig {
	origins := append([]string{}, DevOrigins...)
	if frontendURL != "" {
		origins = append(origins, frontendURL)
	}
	for _, o := range extraOrigins {
		if o == "" {
			continue
		}
		seen := false
		for _, existing := range origins {
			if existing == o {
				seen = true
				break
			}
		}
		if !seen {
			origins = append(origins, o)
		}
	}

	return middleware.CORSConfig{
		AllowOrigins:     origins,
		AllowMethods:     AllowedMethods,
		AllowCredentials: true,
		AllowHeaders:     AllowedHeaders,
	}
}
