package handler

import (
    "errors"
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/restaurant-reservation/internal/repository"
    "github.com/iliyamo/restaurant-reservation/internal/service"
)

const msgInternal = "Something failed!"

// respondError maps the error taxonomy onto one HTTP response.  Anything
// unclassified is logged and answered with a generic 500.
func respondError(c echo.Context, err error) error {
    var ve *service.ValidationError
    var nf *repository.NotFoundError
    var ce *service.ConflictError
    switch {
    case errors.As(err, &ve):
        return c.JSON(http.StatusUnprocessableEntity, echo.Map{"errors": ve.Errors})
    case errors.As(err, &nf):
        return c.JSON(http.StatusNotFound, echo.Map{"error": nf.Error()})
    case errors.As(err, &ce):
        return c.JSON(http.StatusConflict, echo.Map{"error": ce.Message})
    case errors.Is(err, repository.ErrEmailExists):
        return c.JSON(http.StatusConflict, echo.Map{"error": "Email already in use"})
    case errors.Is(err, repository.ErrConflict):
        return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
    case errors.Is(err, repository.ErrForbidden):
        return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
    }
    c.Logger().Errorf("%s %s: %v", c.Request().Method, c.Path(), err)
    return c.JSON(http.StatusInternalServerError, echo.Map{"error": msgInternal})
}

func badBody(c echo.Context) error {
    return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
}

func created(c echo.Context, location string) error {
    c.Response().Header().Set(echo.HeaderLocation, location)
    return c.JSON(http.StatusCreated, echo.Map{"location": location})
}
