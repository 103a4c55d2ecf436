package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
)

// maxBodyBytes bounds request bodies, imported ledgers included.
const maxBodyBytes = 4 << 20

var validate = validator.New(validator.WithRequiredStructEnabled()) //nolint:gochecknoglobals // validator caches struct metadata

// ValidationError describes one rejected request field.
type ValidationError struct {
	Code    string         `json:"code"`
	Field   string         `json:"field,omitempty"`
	Message string         `json:"message"`
	Params  map[string]any `json:"params,omitempty"`
}

// requestError is a rejected request with per-field detail.
type requestError struct {
	details []ValidationError
}

func (e *requestError) Error() string {
	if len(e.details) == 0 {
		return ErrBadRequest.Error()
	}
	return e.details[0].Message
}

func (e *requestError) Unwrap() error { return ErrBadRequest }

// decodeAndValidate reads a JSON body into req, applies `default` tags and
// validates `validate` tags.
func decodeAndValidate(r *http.Request, req any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(req); err != nil && !errors.Is(err, io.EOF) {
		return &requestError{details: []ValidationError{{Code: "ERR_MALFORMED", Message: "malformed JSON body: " + err.Error()}}}
	}
	return defaultAndValidate(r.Context(), req)
}

func defaultAndValidate(ctx context.Context, req any) error {
	if err := defaults.Set(req); err != nil {
		return &requestError{details: []ValidationError{{Code: "ERR_DEFAULTS", Message: err.Error()}}}
	}
	if err := validate.StructCtx(ctx, req); err != nil {
		return &requestError{details: validationDetails(err)}
	}
	return nil
}

func validationDetails(err error) []ValidationError {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []ValidationError{{Code: "ERR_UNKNOWN", Message: err.Error()}}
	}
	out := make([]ValidationError, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, ValidationError{
			Code:    "ERR_" + strings.ToUpper(fe.Tag()),
			Field:   fe.Field(),
			Message: fieldMessage(fe),
			Params:  fieldParams(fe),
		})
	}
	return out
}

func fieldMessage(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be greater than or equal to %s", field, fe.Param())
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	default:
		return fmt.Sprintf("%s failed validation: %s", field, fe.Tag())
	}
}

func fieldParams(fe validator.FieldError) map[string]any {
	switch fe.Tag() {
	case "min", "gte":
		return map[string]any{"min": fe.Param()}
	case "gt":
		return map[string]any{"value": fe.Param()}
	case "oneof":
		return map[string]any{"options": strings.Split(fe.Param(), " ")}
	}
	return nil
}

func writeRequestError(w http.ResponseWriter, err error) {
	var re *requestError
	if errors.As(err, &re) {
		writeJSON(w, http.StatusBadRequest, errorResponse{Code: "bad_request", Message: re.Error(), Details: re.details})
		return
	}
	writeError(w, http.StatusBadRequest, "bad_request", err)
}
