package db

import (
	"context"

	"github.com/google/uuid"
)

const create = `INSERT INTO products (name, description, price, image_url, image_urls)
VALUES ($1, $2, $3, $4, $5)
RETURNING id, name, description, price, image_url, image_urls, created_at
`

type CreateParams struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Price       float64  `json:"price"`
	ImageUrl    *string  `json:"image_url"`
	ImageUrls   []string `json:"image_urls"`
}

func (q *Queries) Create(ctx context.Context, arg CreateParams) (Product, error) {
	row := q.db.QueryRow(ctx, create,
		arg.Name,
		arg.Description,
		arg.Price,
		arg.ImageUrl,
		arg.ImageUrls,
	)
	var i Product
	err := row.Scan(
		&i.ID,
		&i.Name,
		&i.Description,
		&i.Price,
		&i.ImageUrl,
		&i.ImageUrls,
		&i.CreatedAt,
	)
	return i, err
}

const delete = `DELETE FROM products
WHERE id = $1
`

func (q *Queries) Delete(ctx context.Context, id uuid.UUID) (int64, error) {
	result, err := q.db.Exec(ctx, delete, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

const findAll = `SELECT id, name, description, price, image_url, image_urls, created_at
FROM products
ORDER BY created_at DESC, id
`

func (q *Queries) FindAll(ctx context.Context) ([]Product, error) {
	rows, err := q.db.Query(ctx, findAll)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Product
	for rows.Next() {
		var i Product
		if err := rows.Scan(
			&i.ID,
			&i.Name,
			&i.Description,
			&i.Price,
			&i.ImageUrl,
			&i.ImageUrls,
			&i.CreatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const update = `UPDATE products
SET name        = CASE WHEN $1::bool THEN $2::text ELSE name END,
    description = CASE WHEN $3::bool THEN $4::text ELSE description END,
    price       = CASE WHEN $5::bool THEN $6::float8 ELSE price END,
    image_url   = CASE WHEN $7::bool THEN $8::text ELSE image_url END,
    image_urls  = CASE WHEN $9::bool THEN $10::text[] ELSE image_urls END
WHERE id = $11
RETURNING id, name, description, price, image_url, image_urls, created_at
`

type UpdateParams struct {
	SetName        bool      `json:"set_name"`
	Name           string    `json:"name"`
	SetDescription bool      `json:"set_description"`
	Description    string    `json:"description"`
	SetPrice       bool      `json:"set_price"`
	Price          float64   `json:"price"`
	SetImageUrl    bool      `json:"set_image_url"`
	ImageUrl       *string   `json:"image_url"`
	SetImageUrls   bool      `json:"set_image_urls"`
	ImageUrls      []string  `json:"image_urls"`
	ID             uuid.UUID `json:"id"`
}

func (q *Queries) Update(ctx context.Context, arg UpdateParams) (Product, error) {
	row := q.db.QueryRow(ctx, update,
		arg.SetName,
		arg.Name,
		arg.SetDescription,
		arg.Description,
		arg.SetPrice,
		arg.Price,
		arg.SetImageUrl,
		arg.ImageUrl,
		arg.SetImageUrls,
		arg.ImageUrls,
		arg.ID,
	)
	var i Product
	err := row.Scan(
		&i.ID,
		&i.Name,
		&i.Description,
		&i.Price,
		&i.ImageUrl,
		&i.ImageUrls,
		&i.CreatedAt,
	)
	return i, err
}
