package handler

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"pdf-toolkit/internal/domain"
)

// NewRouter creates a new HTTP router with all routes configured
func NewRouter(conversions *ConversionHandler, progress *ProgressHandler, allowedOrigins []string, logger domain.Logger) http.Handler {
	router := mux.NewRouter()
	router.Use(Recoverer(logger))

	// Health check endpoint
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "service": "pdf-toolkit"})
	}).Methods("GET")

	// API prefix
	api := router.PathPrefix("/api/v1").Subrouter()

	// The socket route skips request logging; the recorder would log it only
	// once the connection closes.
	api.HandleFunc("/progress", progress.Stream).Methods("GET")

	logged := RequestLogger(logger)
	api.Handle("/tools", logged(http.HandlerFunc(conversions.ListTools))).Methods("GET")
	api.Handle("/convert/{tool}", logged(http.HandlerFunc(conversions.Convert))).Methods("POST")
	api.Handle("/cancel", logged(http.HandlerFunc(conversions.Cancel))).Methods("POST")
	api.Handle("/reset", logged(http.HandlerFunc(conversions.Reset))).Methods("POST")
	api.Handle("/status", logged(http.HandlerFunc(conversions.Status))).Methods("GET")
	api.Handle("/download", logged(http.HandlerFunc(conversions.Download))).Methods("GET")

	// Configure CORS
	c := cors.New(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodOptions,
		},
		AllowedHeaders: []string{
			"Accept",
			"Content-Type",
			"X-CSRF-Token",
		},
		ExposedHeaders: []string{
			"Content-Disposition",
			"X-Auto-Saved",
		},
		AllowCredentials: true,
		MaxAge:           300, // Maximum value not ignored by any of major browsers
	})

	return c.Handler(router)
}
