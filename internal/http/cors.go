package http

import (
	stdhttp "net/http"
	"slices"

	"github.com/rs/cors"
)

const corsMaxAgeSeconds = 600

// CORSSettings lists the browser origins allowed to call the API. "*" allows any origin.
type CORSSettings struct {
	AllowOrigins []string
}

// newCORS wraps the whole mux so preflight requests are answered for every path,
// including ones with no registered OPTIONS operation.
func newCORS(settings CORSSettings) *cors.Cors {
	opts := cors.Options{
		AllowedMethods: []string{
			stdhttp.MethodGet,
			stdhttp.MethodHead,
			stdhttp.MethodPost,
			stdhttp.MethodPut,
			stdhttp.MethodPatch,
			stdhttp.MethodDelete,
		},
		AllowedHeaders:       []string{"*"},
		ExposedHeaders:       []string{requestIDHeader},
		AllowCredentials:     true,
		MaxAge:               corsMaxAgeSeconds,
		OptionsSuccessStatus: stdhttp.StatusOK,
	}

	// Credentials are allowed, so a wildcard echoes the caller's origin instead of
	// a literal "*". An empty list allows no origin; the cors package would read it
	// as allow-all.
	switch {
	case slices.Contains(settings.AllowOrigins, "*"):
		opts.AllowOriginFunc = func(string) bool { return true }
	case len(settings.AllowOrigins) == 0:
		opts.AllowOriginFunc = func(string) bool { return false }
	default:
		opts.AllowedOrigins = settings.AllowOrigins
	}

	return cors.New(opts)
}
