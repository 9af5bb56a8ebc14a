package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"goflare.io/loyalty"
)

type DiscountHandler interface {
	ListActive(c echo.Context) error
}

type discountHandler struct {
	Loyalty loyalty.Loyalty
}

func NewDiscountHandler(
	Loyalty loyalty.Loyalty,
) DiscountHandler {
	return &discountHandler{
		Loyalty: Loyalty,
	}
}

// ListActive handles GET /discounts/active
func (dh *discountHandler) ListActive(c echo.Context) error {
	discounts, err := dh.Loyalty.ActiveDiscounts(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to list active discounts"})
	}

	return c.JSON(http.StatusOK, discounts)
}
