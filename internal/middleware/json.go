package middleware

import (
	"encoding/json"
	"errors"
	"net/http"

	"crowdpulse-api/internal/model"
	"crowdpulse-api/pkg/apierror"
)

func jsonEncode(w http.ResponseWriter, value any) error {
	return json.NewEncoder(w).Encode(value)
}

func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = jsonEncode(w, value)
}

func writeAPIError(w http.ResponseWriter, err error) {
	var apiErr *apierror.APIError
	if !errors.As(err, &apiErr) {
		apiErr = apierror.Internal("An unexpected error occurred")
	}

	writeJSON(w, apiErr.HTTPStatus, model.APIResponse{Message: apiErr.Message, Data: apiErr.Data})
}
