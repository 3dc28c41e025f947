package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"crowdpulse-api/internal/model"
	"crowdpulse-api/pkg/apierror"
)

const maxBodyBytes = 1 << 20

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func writeSuccess(w http.ResponseWriter, status int, message string, data any, meta *model.Meta) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(model.APIResponse{
		Message: message,
		Data:    data,
		Meta:    meta,
	})
}

func writeError(w http.ResponseWriter, err error) {
	apiErr := classifyError(err)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(apiErr.HTTPStatus)
	_ = json.NewEncoder(w).Encode(model.APIResponse{
		Message: apiErr.Message,
		Data:    apiErr.Data,
	})
}

func classifyError(err error) *apierror.APIError {
	var apiErr *apierror.APIError
	switch {
	case errors.As(err, &apiErr):
		return apiErr
	case errors.Is(err, model.ErrUserNotFound):
		return apierror.NotFound("user not found")
	case errors.Is(err, model.ErrUserAlreadyExists):
		return apierror.Conflict("user already exists")
	case errors.Is(err, model.ErrTopicNotFound):
		return apierror.NotFound("topic not found")
	case errors.Is(err, model.ErrTopicNotOpen):
		return apierror.Conflict("topic is not open for submissions")
	case errors.Is(err, model.ErrSubmissionNotFound):
		return apierror.NotFound("submission not found")
	case errors.Is(err, model.ErrTopicResultNotFound):
		return apierror.NotFound("topic result not found")
	case errors.Is(err, model.ErrUnauthorized), errors.Is(err, model.ErrTokenNotFound):
		return apierror.Unauthorized("authentication required")
	case errors.Is(err, model.ErrForbidden):
		return apierror.Forbidden("access denied")
	case errors.Is(err, model.ErrInvalidInput):
		return apierror.BadRequest("invalid input")
	default:
		slog.Error("unhandled error in writeError", "error", err)
		return apierror.Internal("An unexpected error occurred")
	}
}

// decodeJSON reads a JSON body into dst and validates it. An empty body is
// accepted when allowEmpty is set and leaves dst untouched.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any, allowEmpty bool) error {
	defer r.Body.Close()

	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := decoder.Decode(dst); err != nil {
		if !(allowEmpty && errors.Is(err, io.EOF)) {
			return apierror.BadRequest("invalid JSON body")
		}
	}

	if err := validate.Struct(dst); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			fields := make([]model.FieldError, 0, len(validationErrs))
			for _, fe := range validationErrs {
				fields = append(fields, model.FieldError{Field: fe.Field(), Rule: fe.Tag()})
			}
			return apierror.BadRequest("validation failed").WithData(fields)
		}
		return apierror.BadRequest("invalid request body")
	}

	return nil
}
