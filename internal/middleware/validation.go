package middleware

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	apierrors "avocadoanalytics/internal/errors"
	api "avocadoanalytics/pkg/contracts/api/v1"
	"avocadoanalytics/pkg/contracts/domain"
)

// QueryValidator decodes and validates the query parameters of dashboard requests
type QueryValidator struct {
	validator *validator.Validate
	logger    *slog.Logger
}

// NewQueryValidator creates a validator with the custom tags registered
func NewQueryValidator(logger *slog.Logger) *QueryValidator {
	v := validator.New()

	v.RegisterValidation("iso8601", isISO8601)

	// Use JSON tag names in error messages
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return &QueryValidator{
		validator: v,
		logger:    logger.With(slog.String("component", "query_validator")),
	}
}

// ValidateStruct validates a struct and returns an APIError listing every failed field
func (v *QueryValidator) ValidateStruct(s interface{}) error {
	err := v.validator.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return apierrors.InvalidRequestWithError(err)
	}

	validationErrors := make([]apierrors.ValidationError, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		validationErrors = append(validationErrors, apierrors.ValidationError{
			Field:   fe.Field(),
			Message: formatValidationError(fe),
			Value:   fmt.Sprint(fe.Value()),
		})
	}
	return apierrors.NewValidationErrors(validationErrors)
}

// ChartsRequest reads the filter parameters from the URL query
func (v *QueryValidator) ChartsRequest(r *http.Request) (api.ChartsRequest, error) {
	q := r.URL.Query()
	req := api.ChartsRequest{
		Region:    strings.TrimSpace(q.Get("region")),
		Type:      strings.TrimSpace(q.Get("type")),
		StartDate: strings.TrimSpace(q.Get("start_date")),
		EndDate:   strings.TrimSpace(q.Get("end_date")),
	}
	if err := v.ValidateStruct(req); err != nil {
		v.logger.DebugContext(r.Context(), "filter parameters rejected",
			slog.String("query", r.URL.RawQuery),
			slog.String("error", err.Error()),
		)
		return api.ChartsRequest{}, err
	}
	return req, nil
}

// FilterQuery reads and validates the filter parameters and converts them to a domain query
func (v *QueryValidator) FilterQuery(r *http.Request) (domain.FilterQuery, error) {
	req, err := v.ChartsRequest(r)
	if err != nil {
		return domain.FilterQuery{}, err
	}
	return ToFilterQuery(req)
}

// ExportRequest reads the filter parameters plus the download format
func (v *QueryValidator) ExportRequest(r *http.Request) (api.ExportRequest, domain.FilterQuery, error) {
	charts, err := v.ChartsRequest(r)
	if err != nil {
		return api.ExportRequest{}, domain.FilterQuery{}, err
	}
	req := api.ExportRequest{
		ChartsRequest: charts,
		Format:        strings.ToLower(strings.TrimSpace(r.URL.Query().Get("format"))),
	}
	if err := v.ValidateStruct(req); err != nil {
		return api.ExportRequest{}, domain.FilterQuery{}, err
	}
	q, err := ToFilterQuery(charts)
	if err != nil {
		return api.ExportRequest{}, domain.FilterQuery{}, err
	}
	return req, q, nil
}

// QueriesRequest reads the limit parameter, falling back to defaultLimit when absent
func (v *QueryValidator) QueriesRequest(r *http.Request, defaultLimit int) (api.QueriesRequest, error) {
	req := api.QueriesRequest{Limit: defaultLimit}
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return api.QueriesRequest{}, apierrors.ErrValidation("limit", "limit must be a valid integer")
		}
		req.Limit = n
	}
	if err := v.ValidateStruct(req); err != nil {
		return api.QueriesRequest{}, err
	}
	return req, nil
}

// ToFilterQuery converts validated raw parameters into a domain query
func ToFilterQuery(req api.ChartsRequest) (domain.FilterQuery, error) {
	q, err := domain.NewFilterQuery(req.Region, req.Type, req.StartDate, req.EndDate)
	if err != nil {
		return domain.FilterQuery{}, apierrors.NewParsingError(err.Error(), err)
	}
	return q, nil
}

// formatValidationError formats validation error messages
func formatValidationError(err validator.FieldError) string {
	field := err.Field()
	param := err.Param()

	switch err.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, param)
	case "max":
		if err.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at most %s characters", field, param)
		}
		return fmt.Sprintf("%s must be at most %s", field, param)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(param, " ", ", "))
	case "iso8601":
		return fmt.Sprintf("%s must be a date in YYYY-MM-DD format", field)
	default:
		return fmt.Sprintf("%s failed %s validation", field, err.Tag())
	}
}

// isISO8601 validates a YYYY-MM-DD calendar date
func isISO8601(fl validator.FieldLevel) bool {
	_, err := domain.ParseDate(fl.Field().String())
	return err == nil
}
