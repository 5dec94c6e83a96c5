package repository

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"campus_cruiser/internal/models"
)

// UserRepository reads and writes the users collection.
type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// ListByRole returns every user with the given role, oldest first.
func (r *UserRepository) ListByRole(ctx context.Context, role string) ([]models.User, error) {
	var users []models.User
	if err := r.db.WithContext(ctx).Where("role = ?", role).Order("id ASC").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func (r *UserRepository) FindByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).First(&user, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// FindStudentByRollNumber matches roll numbers case-insensitively; stored
// roll numbers are upper-case, so the argument is upper-cased instead of the column.
func (r *UserRepository) FindStudentByRollNumber(ctx context.Context, rollNumber string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).
		Where("role = ? AND roll_number = ?", models.RoleStudent, strings.ToUpper(strings.TrimSpace(rollNumber))).
		First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByIdentifier resolves a login identifier: a roll number for students or
// a username for admins.
func (r *UserRepository) FindByIdentifier(ctx context.Context, identifier string) (*models.User, error) {
	id := strings.TrimSpace(identifier)
	var user models.User
	err := r.db.WithContext(ctx).
		Where("(role = ? AND roll_number = ?) OR (role = ? AND username = ?)",
			models.RoleStudent, strings.ToUpper(id), models.RoleAdmin, id).
		First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Create inserts user. A roll number already taken yields ErrDuplicateUser.
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	err := r.db.WithContext(ctx).Create(user).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicateUser
	}
	return err
}

// UpdateFields applies a partial update to one user.
func (r *UserRepository) UpdateFields(ctx context.Context, id uint, fields map[string]interface{}) error {
	res := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

// DeleteStudent removes one student record. Stops referencing the student's
// roll number are left in place.
func (r *UserRepository) DeleteStudent(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Unscoped().
		Where("id = ? AND role = ?", id, models.RoleStudent).
		Delete(&models.User{}).Error
}

// DeleteAllStudents removes every student record and reports how many were removed.
func (r *UserRepository) DeleteAllStudents(ctx context.Context) (int64, error) {
	res := r.db.WithContext(ctx).Unscoped().Where("role = ?", models.RoleStudent).Delete(&models.User{})
	return res.RowsAffected, res.Error
}
