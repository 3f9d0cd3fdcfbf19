package repository

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/iliyamo/clinic-api/internal/model"
)

// UserRepo stores doctors, patients and administrators in the users table.
type UserRepo struct{ DB *gorm.DB }

func NewUserRepo(db *gorm.DB) *UserRepo { return &UserRepo{DB: db} }

// NormalizeEmail trims and lower-cases an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Create inserts u.  The password must already be hashed.
func (r *UserRepo) Create(ctx context.Context, u *model.User) error {
	u.Email = NormalizeEmail(u.Email)
	if err := r.DB.WithContext(ctx).Omit(clause.Associations).Create(u).Error; err != nil {
		if isDuplicate(err) {
			return ErrEmailExists
		}
		return err
	}
	return nil
}

// GetByID fetches a user by id regardless of role.
func (r *UserRepo) GetByID(ctx context.Context, id string) (model.User, error) {
	var u model.User
	err := r.DB.WithContext(ctx).Where("id = ?", id).Take(&u).Error
	return u, notFound(err)
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	var u model.User
	err := r.DB.WithContext(ctx).Where("email = ?", NormalizeEmail(email)).Take(&u).Error
	return u, notFound(err)
}

// GetByIDAndRole fetches a user only if it holds role.
func (r *UserRepo) GetByIDAndRole(ctx context.Context, id string, role model.Role) (model.User, error) {
	var u model.User
	err := r.DB.WithContext(ctx).Where("id = ? AND role = ?", id, role).Take(&u).Error
	return u, notFound(err)
}

// ListByRole returns every user with role ordered by name.
func (r *UserRepo) ListByRole(ctx context.Context, role model.Role) ([]model.User, error) {
	var out []model.User
	err := r.DB.WithContext(ctx).Where("role = ?", role).Order("name ASC").Find(&out).Error
	return out, err
}

// Update writes every column of u.  Role is never changed here.
func (r *UserRepo) Update(ctx context.Context, u *model.User) error {
	u.Email = NormalizeEmail(u.Email)
	err := r.DB.WithContext(ctx).Model(u).Omit("role", "created_at", clause.Associations).
		Select("*").Updates(u).Error
	if err != nil {
		if isDuplicate(err) {
			return ErrEmailExists
		}
		return err
	}
	return nil
}

// DeleteByIDAndRole removes the user if it holds role.  Rows referencing it
// are removed by the ON DELETE CASCADE constraints.
func (r *UserRepo) DeleteByIDAndRole(ctx context.Context, id string, role model.Role) error {
	res := r.DB.WithContext(ctx).Where("id = ? AND role = ?", id, role).Delete(&model.User{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// UpsertAdmin creates an ADMIN with email unless a user with that email
// already exists, in which case the existing row is returned untouched.
// created reports which branch ran.
func (r *UserRepo) UpsertAdmin(ctx context.Context, email, name, hash string) (u model.User, created bool, err error) {
	email = NormalizeEmail(email)
	err = r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		lookup := tx.Where("email = ?", email).Take(&u).Error
		switch {
		case lookup == nil:
			return nil
		case errors.Is(lookup, gorm.ErrRecordNotFound):
			u = model.User{Name: name, Email: email, Password: hash, Role: model.RoleAdmin}
			created = true
			return tx.Omit(clause.Associations).Create(&u).Error
		default:
			return lookup
		}
	})
	return u, created, err
}
