package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"farmmarket/internal/models"
)

type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

const userColumns = `id, name, email, password_hash, role, status, created_at, updated_at`

func scanUser(row pgx.Row) (models.User, error) {
	var user models.User
	if err := row.Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.PasswordHash,
		&user.Role,
		&user.Status,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, ErrUserNotFound
		}
		return models.User{}, err
	}
	return user, nil
}

// Create inserts the user and fills in the store-assigned timestamps. A
// duplicate email is reported as ErrEmailTaken.
func (r *UserRepository) Create(ctx context.Context, user models.User) (models.User, error) {
	const query = `
		INSERT INTO users (
			id, name, email, password_hash, role, status, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, NOW(), NOW()
		)
		RETURNING ` + userColumns

	created, err := scanUser(r.pool.QueryRow(ctx, query,
		user.ID,
		user.Name,
		user.Email,
		user.PasswordHash,
		user.Role,
		user.Status,
	))
	if err != nil {
		if isUniqueViolation(err) {
			return models.User{}, ErrEmailTaken
		}
		return models.User{}, err
	}
	return created, nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (models.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return scanUser(r.pool.QueryRow(ctx, query, email))
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (models.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(r.pool.QueryRow(ctx, query, id))
}

// ApproveFarmer moves a farmer to approved in one conditional statement, so
// concurrent approvals cannot both succeed.
func (r *UserRepository) ApproveFarmer(ctx context.Context, id string) error {
	const query = `
		UPDATE users
		SET status = $2, updated_at = NOW()
		WHERE id = $1 AND role = $3 AND status <> $2
	`
	cmd, err := r.pool.Exec(ctx, query, id, models.UserStatusApproved, models.UserRoleFarmer)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrFarmerNotPending
	}
	return nil
}

func (r *UserRepository) ListPendingFarmers(ctx context.Context) ([]models.User, error) {
	const query = `
		SELECT ` + userColumns + `
		FROM users
		WHERE role = $1 AND status = $2
		ORDER BY created_at ASC, id ASC
	`
	rows, err := r.pool.Query(ctx, query, models.UserRoleFarmer, models.UserStatusPending)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

func (r *UserRepository) CountPendingFarmers(ctx context.Context) (int, error) {
	const query = `SELECT COUNT(*) FROM users WHERE role = $1 AND status = $2`
	var count int
	if err := r.pool.QueryRow(ctx, query, models.UserRoleFarmer, models.UserStatusPending).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}
