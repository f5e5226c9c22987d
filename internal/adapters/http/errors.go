package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/socialdesk/core/internal/domain/entities"
	"github.com/socialdesk/core/internal/ports"
)

// toHTTPError maps domain errors onto status codes. Unknown errors are
// returned unchanged and end up as 500s.
func toHTTPError(err error) error {
	if ve, ok := entities.AsValidationError(err); ok {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, ports.ErrorResponse{
			Message: ve.Error(),
			Field:   ve.Field,
			Code:    string(ve.Code),
		})
	}

	switch {
	case errors.Is(err, entities.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, ports.ErrorResponse{Message: err.Error(), Code: "not-found"})
	case errors.Is(err, entities.ErrIndexOutOfRange):
		return echo.NewHTTPError(http.StatusBadRequest, ports.ErrorResponse{Message: err.Error(), Code: "index-out-of-range"})
	case errors.Is(err, entities.ErrInvalidTransition):
		return echo.NewHTTPError(http.StatusConflict, ports.ErrorResponse{Message: err.Error(), Code: "invalid-transition"})
	case errors.Is(err, entities.ErrTerminalState):
		return echo.NewHTTPError(http.StatusConflict, ports.ErrorResponse{Message: err.Error(), Code: "terminal-state"})
	case errors.Is(err, entities.ErrDisconnected):
		return echo.NewHTTPError(http.StatusConflict, ports.ErrorResponse{Message: err.Error(), Code: "disconnected"})
	case errors.Is(err, ports.ErrNoPlatform):
		return echo.NewHTTPError(http.StatusServiceUnavailable, ports.ErrorResponse{Message: err.Error(), Code: "no-platform"})
	}

	var perr *ports.PlatformError
	if errors.As(err, &perr) {
		return echo.NewHTTPError(http.StatusBadGateway, ports.ErrorResponse{Message: err.Error(), Code: "platform-error"})
	}
	return err
}

// bindAndValidate binds the request body into req and runs struct
// validation.
func bindAndValidate(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, ports.ErrorResponse{Message: "Invalid request format"})
	}
	return validate(c, req)
}

// bindPatch decodes a patch body, rejecting fields the patch does not
// declare.
func bindPatch(c echo.Context, patch interface{}) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, ports.ErrorResponse{Message: "Invalid request format"})
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.DisallowUnknownFields()
	if err := dec.Decode(patch); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, ports.ErrorResponse{Message: "Invalid patch: " + err.Error()})
	}
	return nil
}

func validate(c echo.Context, req interface{}) error {
	if err := c.Validate(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return echo.NewHTTPError(http.StatusUnprocessableEntity, ports.ErrorResponse{
				Message: err.Error(),
				Field:   verrs[0].Field(),
				Code:    verrs[0].Tag(),
			})
		}
		return echo.NewHTTPError(http.StatusUnprocessableEntity, ports.ErrorResponse{Message: err.Error()})
	}
	return nil
}

func deleted(c echo.Context, ok bool, what string) error {
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, ports.ErrorResponse{Message: what + " not found", Code: "not-found"})
	}
	return c.NoContent(http.StatusNoContent)
}

func list[T any](c echo.Context, items []T) error {
	if items == nil {
		items = []T{}
	}
	return c.JSON(http.StatusOK, ports.ListResponse[T]{Data: items, Total: len(items)})
}
