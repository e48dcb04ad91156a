package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"farmmarket/internal/models"
)

type ProductRepository struct {
	pool *pgxpool.Pool
}

func NewProductRepository(pool *pgxpool.Pool) *ProductRepository {
	return &ProductRepository{pool: pool}
}

const productColumns = `id, farmer_id, name, price, quantity, image_url, description, created_at, updated_at`

func scanProduct(row pgx.Row) (models.Product, error) {
	var p models.Product
	if err := row.Scan(
		&p.ID,
		&p.FarmerID,
		&p.Name,
		&p.Price,
		&p.Quantity,
		&p.ImageURL,
		&p.Description,
		&p.CreatedAt,
		&p.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Product{}, ErrProductNotFound
		}
		return models.Product{}, err
	}
	return p, nil
}

// ListPublic joins against the owner on every call; products of farmers who
// are not approved never appear.
func (r *ProductRepository) ListPublic(ctx context.Context) ([]models.ProductListing, error) {
	const query = `
		SELECT p.id, p.farmer_id, p.name, p.price, p.quantity, p.image_url, p.description,
		       p.created_at, p.updated_at, u.name
		FROM products p
		JOIN users u ON u.id = p.farmer_id
		WHERE u.role = $1 AND u.status = $2
		ORDER BY p.created_at DESC, p.id DESC
	`
	rows, err := r.pool.Query(ctx, query, models.UserRoleFarmer, models.UserStatusApproved)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	listings := []models.ProductListing{}
	for rows.Next() {
		var l models.ProductListing
		if err := rows.Scan(
			&l.ID,
			&l.FarmerID,
			&l.Name,
			&l.Price,
			&l.Quantity,
			&l.ImageURL,
			&l.Description,
			&l.CreatedAt,
			&l.UpdatedAt,
			&l.FarmerName,
		); err != nil {
			return nil, err
		}
		listings = append(listings, l)
	}
	return listings, rows.Err()
}

func (r *ProductRepository) ListByFarmer(ctx context.Context, farmerID string) ([]models.Product, error) {
	const query = `
		SELECT ` + productColumns + `
		FROM products
		WHERE farmer_id = $1
		ORDER BY created_at DESC, id DESC
	`
	rows, err := r.pool.Query(ctx, query, farmerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	products := []models.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

func (r *ProductRepository) Create(ctx context.Context, p models.Product) (models.Product, error) {
	const query = `
		INSERT INTO products (
			id, farmer_id, name, price, quantity, image_url, description, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, NOW(), NOW()
		)
		RETURNING ` + productColumns

	return scanProduct(r.pool.QueryRow(ctx, query,
		p.ID,
		p.FarmerID,
		p.Name,
		p.Price,
		p.Quantity,
		p.ImageURL,
		p.Description,
	))
}

// UpdateOwned applies a partial update scoped to the owner. Ownership and
// mutation happen in the same statement; a missing row and a row owned by
// someone else both yield ErrProductNotFound.
func (r *ProductRepository) UpdateOwned(ctx context.Context, id, farmerID string, patch models.ProductPatch) (models.Product, error) {
	const query = `
		UPDATE products
		SET name        = COALESCE($3, name),
		    price       = COALESCE($4, price),
		    quantity    = COALESCE($5, quantity),
		    image_url   = COALESCE($6, image_url),
		    description = COALESCE($7, description),
		    updated_at  = NOW()
		WHERE id = $1 AND farmer_id = $2
		RETURNING ` + productColumns

	return scanProduct(r.pool.QueryRow(ctx, query,
		id,
		farmerID,
		patch.Name,
		patch.Price,
		patch.Quantity,
		patch.ImageURL,
		patch.Description,
	))
}

func (r *ProductRepository) DeleteOwned(ctx context.Context, id, farmerID string) error {
	const query = `DELETE FROM products WHERE id = $1 AND farmer_id = $2`
	cmd, err := r.pool.Exec(ctx, query, id, farmerID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrProductNotFound
	}
	return nil
}
