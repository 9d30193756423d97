package service

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/abgdnv/catalog/internal/store/db"
)

// Price is a product price. It decodes from a JSON number or a numeric string.
type Price float64

func (p *Price) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return fmt.Errorf("price %q is not a number", s)
		}
		*p = Price(v)
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("price must be a number: %w", err)
	}
	*p = Price(v)
	return nil
}

// Field is an optional JSON field that tells an absent key apart from an explicit null.
type Field[T any] struct {
	Set   bool
	Valid bool
	Value T
}

func (f *Field[T]) UnmarshalJSON(data []byte) error {
	f.Set = true
	if string(bytes.TrimSpace(data)) == "null" {
		f.Valid = false
		return nil
	}
	if err := json.Unmarshal(data, &f.Value); err != nil {
		return err
	}
	f.Valid = true
	return nil
}

// ProductDto represents the data transfer object for a product.
type ProductDto struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Price       float64   `json:"price"`
	ImageURL    *string   `json:"image_url"`
	ImageURLs   []string  `json:"image_urls"`
	CreatedAt   time.Time `json:"created_at"`
}

// ProductCreateDto represents the data transfer object for creating a new product.
type ProductCreateDto struct {
	Name        string   `json:"name"        validate:"required"`
	Description string   `json:"description" validate:"required"`
	Price       *Price   `json:"price"       validate:"required"`
	ImageURL    string   `json:"image_url"`
	ImageURLs   []string `json:"image_urls"`
}

// ProductUpdateDto carries the fields of a partial update. Only keys present in the request are applied.
type ProductUpdateDto struct {
	ID          string          `json:"id"`
	Name        Field[string]   `json:"name"`
	Description Field[string]   `json:"description"`
	Price       Field[Price]    `json:"price"`
	ImageURL    Field[string]   `json:"image_url"`
	ImageURLs   Field[[]string] `json:"image_urls"`
}

// Validate returns per-field errors. Name, description and price cannot be cleared.
func (u ProductUpdateDto) Validate() map[string]string {
	errs := make(map[string]string)
	if u.Name.Set && !u.Name.Valid {
		errs["Name"] = "must not be null"
	}
	if u.Description.Set && !u.Description.Valid {
		errs["Description"] = "must not be null"
	}
	if u.Price.Set && !u.Price.Valid {
		errs["Price"] = "must not be null"
	}
	return errs
}

// Fields lists the JSON names of the fields present in the update.
func (u ProductUpdateDto) Fields() []string {
	var fields []string
	if u.Name.Set {
		fields = append(fields, "name")
	}
	if u.Description.Set {
		fields = append(fields, "description")
	}
	if u.Price.Set {
		fields = append(fields, "price")
	}
	if u.ImageURL.Set {
		fields = append(fields, "image_url")
	}
	if u.ImageURLs.Set {
		fields = append(fields, "image_urls")
	}
	return fields
}

func (u ProductUpdateDto) toParams() db.UpdateParams {
	params := db.UpdateParams{
		SetName:        u.Name.Set,
		Name:           u.Name.Value,
		SetDescription: u.Description.Set,
		Description:    u.Description.Value,
		SetPrice:       u.Price.Set,
		Price:          float64(u.Price.Value),
		SetImageUrl:    u.ImageURL.Set,
		SetImageUrls:   u.ImageURLs.Set,
	}
	if u.ImageURL.Valid {
		v := u.ImageURL.Value
		params.ImageUrl = &v
	}
	if u.ImageURLs.Valid {
		params.ImageUrls = u.ImageURLs.Value
		if params.ImageUrls == nil {
			params.ImageUrls = []string{}
		}
	}
	return params
}

func (c ProductCreateDto) toParams() db.CreateParams {
	params := db.CreateParams{
		Name:        c.Name,
		Description: c.Description,
		ImageUrls:   c.ImageURLs,
	}
	if c.Price != nil {
		params.Price = float64(*c.Price)
	}
	if c.ImageURL != "" {
		v := c.ImageURL
		params.ImageUrl = &v
	}
	return params
}

// toDto converts a db.Product to a ProductDto.
func toDto(product *db.Product) *ProductDto {
	return &ProductDto{
		ID:          product.ID.String(),
		Name:        product.Name,
		Description: product.Description,
		Price:       product.Price,
		ImageURL:    product.ImageUrl,
		ImageURLs:   product.ImageUrls,
		CreatedAt:   product.CreatedAt,
	}
}
