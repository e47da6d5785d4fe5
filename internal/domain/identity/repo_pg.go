package identity

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/medlink/medlink/internal/platform/auth"
)

// ErrUserNotFound is returned when no user matches the lookup.
var ErrUserNotFound = errors.New("user not found")

// ErrEmailTaken is returned when the unique email constraint is violated.
var ErrEmailTaken = errors.New("user already exists")

type userRepoPG struct{ pool *pgxpool.Pool }

func NewUserRepoPG(pool *pgxpool.Pool) UserRepository {
	return &userRepoPG{pool: pool}
}

const userCols = `id, name, email, password_hash, role, phone,
	address_street, address_city, address_state, address_zip,
	profile_image, emergency_contact_name, emergency_contact_phone, emergency_contact_relation,
	email_verified, created_at, updated_at`

func scanUser(row pgx.Row) (*User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role, &u.Phone,
		&u.AddressStreet, &u.AddressCity, &u.AddressState, &u.AddressZip,
		&u.ProfileImage, &u.EmergencyContactName, &u.EmergencyContactPhone, &u.EmergencyContactRel,
		&u.EmailVerified, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	return &u, err
}

func (r *userRepoPG) Create(ctx context.Context, u *User) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO users (id, name, email, password_hash, role, phone,
			address_street, address_city, address_state, address_zip,
			profile_image, emergency_contact_name, emergency_contact_phone, emergency_contact_relation,
			email_verified)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)`,
		u.ID, u.Name, u.Email, u.PasswordHash, u.Role, u.Phone,
		u.AddressStreet, u.AddressCity, u.AddressState, u.AddressZip,
		u.ProfileImage, u.EmergencyContactName, u.EmergencyContactPhone, u.EmergencyContactRel,
		u.EmailVerified)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrEmailTaken
	}
	return err
}

func (r *userRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	return scanUser(r.pool.QueryRow(ctx, `SELECT `+userCols+` FROM users WHERE id = $1`, id))
}

func (r *userRepoPG) GetByEmail(ctx context.Context, email string) (*User, error) {
	return scanUser(r.pool.QueryRow(ctx, `SELECT `+userCols+` FROM users WHERE email = $1`, email))
}

func (r *userRepoPG) Update(ctx context.Context, u *User) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE users SET name=$2, phone=$3,
			address_street=$4, address_city=$5, address_state=$6, address_zip=$7,
			profile_image=$8, emergency_contact_name=$9, emergency_contact_phone=$10,
			emergency_contact_relation=$11, email_verified=$12, updated_at=NOW()
		WHERE id = $1`,
		u.ID, u.Name, u.Phone,
		u.AddressStreet, u.AddressCity, u.AddressState, u.AddressZip,
		u.ProfileImage, u.EmergencyContactName, u.EmergencyContactPhone,
		u.EmergencyContactRel, u.EmailVerified)
	return err
}

func (r *userRepoPG) ListByRole(ctx context.Context, role auth.Role, limit, offset int) ([]*User, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users WHERE role = $1`, role).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx, `SELECT `+userCols+` FROM users WHERE role = $1
		ORDER BY created_at DESC LIMIT $2 OFFSET $3`, role, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, u)
	}
	return items, total, rows.Err()
}
