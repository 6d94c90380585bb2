package web

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/pmmd05/intento-proyecto-1/internal/analysis"
	"github.com/pmmd05/intento-proyecto-1/internal/appauth"
	"github.com/pmmd05/intento-proyecto-1/internal/db"
)

const maxImageSize = 10 << 20

// maxBase64Body fits a maxImageSize image once base64 encoded, plus the JSON envelope.
var maxBase64Body = int64(base64.StdEncoding.EncodedLen(maxImageSize) + 1<<10)

// Analyzer classifies images and looks up past analyses.
type Analyzer interface {
	Analyze(ctx context.Context, userID string, image []byte) (*analysis.Result, error)
	Get(ctx context.Context, userID string, id uuid.UUID) (*db.Analysis, error)
}

var _ Analyzer = (*analysis.Service)(nil)

// Analyze classifies an uploaded image (POST /v1/analysis/analyze).
// The image is sent as the multipart field "image".
func (h *Handlers) Analyze(w http.ResponseWriter, r *http.Request) {
	userID, ok := appauth.UserID(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, unauthorizedError, "missing session")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxImageSize+1<<20)
	if err := r.ParseMultipartForm(maxImageSize); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "image_too_large", "image must be at most 10MB")
			return
		}
		writeError(w, http.StatusBadRequest, "invalid_request", "expected multipart form with an image field")
		return
	}

	file, _, err := r.FormFile("image")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing_image", "image field is required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxImageSize+1))
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	if len(data) > maxImageSize {
		writeError(w, http.StatusRequestEntityTooLarge, "image_too_large", "image must be at most 10MB")
		return
	}

	h.analyze(w, r, userID, data)
}

// AnalyzeBase64 classifies an image sent as JSON {"image": "<base64>"}
// (POST /v1/analysis/analyze-base64). A data URL prefix is accepted.
func (h *Handlers) AnalyzeBase64(w http.ResponseWriter, r *http.Request) {
	userID, ok := appauth.UserID(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, unauthorizedError, "missing session")
		return
	}

	var req struct {
		Image string `json:"image"`
	}
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBase64Body)).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "image_too_large", "image must be at most 10MB")
			return
		}
		writeError(w, http.StatusBadRequest, "invalid_request", "request body must be JSON")
		return
	}
	if req.Image == "" {
		writeError(w, http.StatusBadRequest, "missing_image", "image field is required")
		return
	}

	data, err := decodeImageBase64(req.Image)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_image", "image must be base64 encoded")
		return
	}
	if len(data) > maxImageSize {
		writeError(w, http.StatusRequestEntityTooLarge, "image_too_large", "image must be at most 10MB")
		return
	}

	h.analyze(w, r, userID, data)
}

// decodeImageBase64 decodes raw, dropping a "data:image/png;base64," style prefix.
func decodeImageBase64(raw string) ([]byte, error) {
	if strings.HasPrefix(raw, "data:") {
		_, payload, ok := strings.Cut(raw, ",")
		if !ok {
			return nil, errors.New("data URL without payload")
		}
		raw = payload
	}
	raw = strings.TrimSpace(raw)
	if data, err := base64.StdEncoding.DecodeString(raw); err == nil {
		return data, nil
	}
	return base64.RawStdEncoding.DecodeString(strings.TrimRight(raw, "="))
}

func (h *Handlers) analyze(w http.ResponseWriter, r *http.Request, userID string, image []byte) {
	res, err := h.analyses.Analyze(r.Context(), userID, image)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// GetAnalysis returns one of the user's analyses (GET /v1/analysis/{id}).
func (h *Handlers) GetAnalysis(w http.ResponseWriter, r *http.Request) {
	userID, ok := appauth.UserID(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, unauthorizedError, "missing session")
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_id", "id must be a UUID")
		return
	}

	a, err := h.analyses.Get(r.Context(), userID, id)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}
