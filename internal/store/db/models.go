package db

import (
	"time"

	"github.com/google/uuid"
)

type Product struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Price       float64   `json:"price"`
	ImageUrl    *string   `json:"image_url"`
	ImageUrls   []string  `json:"image_urls"`
	CreatedAt   time.Time `json:"created_at"`
}
