package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"goflare.io/loyalty"
	"goflare.io/loyalty/config"
	"goflare.io/loyalty/shopkeeper"
)

type ShopkeeperHandler interface {
	AddNew(c echo.Context) error
}

type shopkeeperHandler struct {
	Loyalty loyalty.Loyalty
	dwh     config.DWHConfig
}

func NewShopkeeperHandler(
	Loyalty loyalty.Loyalty,
	dwh config.DWHConfig,
) ShopkeeperHandler {
	return &shopkeeperHandler{
		Loyalty: Loyalty,
		dwh:     dwh,
	}
}

// AddNew handles POST /api/shopkeeper. The endpoint is called by the data
// warehouse and is protected by the shared access token.
func (sh *shopkeeperHandler) AddNew(c echo.Context) error {
	if c.QueryParam("accessToken") != sh.dwh.AccessToken {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Access token is invalid!"})
	}

	var input shopkeeper.RegisterInput
	if err := c.Bind(&input); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request payload"})
	}

	if err := sh.Loyalty.RegisterShopkeeper(c.Request().Context(), input); err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to register shopkeeper"})
	}

	return c.NoContent(http.StatusOK)
}
