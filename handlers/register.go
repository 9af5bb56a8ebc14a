package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"goflare.io/loyalty"
	"goflare.io/loyalty/cardholder"
)

type RegisterHandler interface {
	Register(c echo.Context) error
}

type registerHandler struct {
	Loyalty loyalty.Loyalty
}

func NewRegisterHandler(
	Loyalty loyalty.Loyalty,
) RegisterHandler {
	return &registerHandler{
		Loyalty: Loyalty,
	}
}

// Register handles POST /register. Validation failures come back as one
// response carrying every violated rule.
func (rh *registerHandler) Register(c echo.Context) error {
	var input cardholder.RegistrationInput
	if err := c.Bind(&input); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request payload"})
	}

	if errs := rh.Loyalty.ValidateRegistration(input); len(errs) > 0 {
		return c.JSON(http.StatusBadRequest, map[string][]string{"errors": errs})
	}

	if err := rh.Loyalty.AddCardHolder(c.Request().Context(), input.PaymentCardNumber, input.PaymentCardValidUntil, input.UserID); err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to register card holder"})
	}

	return c.NoContent(http.StatusCreated)
}
