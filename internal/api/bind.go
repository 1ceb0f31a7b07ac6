package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// bindRequest decodes path, query and body into T and runs its validate tags.
func bindRequest[T any](c echo.Context) (T, error) {
	var v T
	if err := c.Bind(&v); err != nil {
		var he *echo.HTTPError
		if errors.As(err, &he) {
			return v, echo.NewHTTPError(http.StatusBadRequest, fmt.Sprint(he.Message)).SetInternal(err)
		}
		return v, echo.NewHTTPError(http.StatusBadRequest, err.Error()).SetInternal(err)
	}
	if err := validate.Struct(v); err != nil {
		return v, echo.NewHTTPError(http.StatusBadRequest, validationMessage(err)).SetInternal(err)
	}
	return v, nil
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Param() != "" {
			msgs = append(msgs, fmt.Sprintf("field '%s' failed rule '%s=%s' (got '%v')", fe.Field(), fe.Tag(), fe.Param(), fe.Value()))
			continue
		}
		msgs = append(msgs, fmt.Sprintf("field '%s' failed rule '%s'", fe.Field(), fe.Tag()))
	}
	return strings.Join(msgs, "; ")
}
