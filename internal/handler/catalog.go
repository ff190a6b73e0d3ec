package handler

import (
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/restaurant-reservation/internal/repository"
)

// CatalogHandler exposes the seeded reference tables so clients can fill
// course and discount pickers.
type CatalogHandler struct {
    Catalog *repository.CatalogRepo
}

func NewCatalogHandler(r *repository.CatalogRepo) *CatalogHandler { return &CatalogHandler{Catalog: r} }

func (h *CatalogHandler) Courses(c echo.Context) error {
    ctx, cancel := reqCtx(c)
    defer cancel()
    list, err := h.Catalog.Courses(ctx)
    if err != nil {
        return respondError(c, err)
    }
    return c.JSON(http.StatusOK, list)
}

func (h *CatalogHandler) Discounts(c echo.Context) error {
    ctx, cancel := reqCtx(c)
    defer cancel()
    list, err := h.Catalog.Discounts(ctx)
    if err != nil {
        return respondError(c, err)
    }
    return c.JSON(http.StatusOK, list)
}
