package upload

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/feildrixliemdra/library-admin/internal/constants"
	"github.com/feildrixliemdra/library-admin/pkg/library"
)

const (
	headerContentType = "Content-Type"
	contentTypeJSON   = "application/json; charset=utf-8"
	requestTimeout    = 10 * time.Second
)

// NewRouter serves the upload auth endpoint at constants.UploadAuthPath.
func NewRouter(signer *Signer, logger library.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(requestTimeout))

	r.Get(constants.UploadAuthPath, AuthHandler(signer, logger))

	return r
}

// AuthHandler responds with freshly signed AuthParams.
func AuthHandler(signer *Signer, logger library.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params, err := signer.Sign()
		if err != nil {
			if logger != nil {
				logger.Error("upload auth failed", map[string]interface{}{
					"error":      err.Error(),
					"request_id": middleware.GetReqID(r.Context()),
				})
			}

			respondJSON(w, http.StatusInternalServerError, map[string]string{
				"error": "Failed to generate authentication parameters",
			})

			return
		}

		w.Header().Set("Cache-Control", "no-store")
		respondJSON(w, http.StatusOK, params)
	}
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	body, err := json.Marshal(payload)
	if err != nil {
		w.Header().Set(headerContentType, contentTypeJSON)
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"Internal Server Error"}`))

		return
	}

	w.Header().Set(headerContentType, contentTypeJSON)
	w.WriteHeader(status)
	_, _ = w.Write(body)
}
