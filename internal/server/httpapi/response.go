package httpapi

import (
	"errors"
	"net/http"

	"github.com/dmitrijs2005/storegate/internal/server/services"
	"github.com/go-chi/render"
)

const (
	statusSuccess = "success"
	statusError   = "error"
)

// envelope is the body of every JSON response.
type envelope struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

func writeSuccess(w http.ResponseWriter, r *http.Request, message string, data any) {
	render.Status(r, http.StatusOK)
	render.JSON(w, r, envelope{Status: statusSuccess, Message: message, Data: data})
}

func writeError(w http.ResponseWriter, r *http.Request, status int, message string) {
	render.Status(r, status)
	render.JSON(w, r, envelope{Status: statusError, Message: message})
}

// writeServiceError reports business failures with 200 and an error body.
// Store failures get 500; anything unclassified is hidden behind a generic
// message.
func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var se *services.Error
	if !errors.As(err, &se) {
		h.logger.Error(r.Context(), "request failed", "path", r.URL.Path, "error", err)
		writeError(w, r, http.StatusInternalServerError, "Internal server error")
		return
	}

	if se.Kind == services.KindUpstream {
		h.logger.Error(r.Context(), "store failure", "path", r.URL.Path, "error", err)
		writeError(w, r, http.StatusInternalServerError, se.Message)
		return
	}

	writeError(w, r, http.StatusOK, se.Message)
}
