package models

import (
	"time"

	"github.com/google/uuid"
)

type Shopkeeper struct {
	ID           uuid.UUID `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	PhoneNumber  string    `json:"phone_number"`
	RegisteredOn time.Time `json:"registered_on"`
}
