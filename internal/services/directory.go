package services

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"campus_cruiser/internal/mail"
	"campus_cruiser/internal/models"
	"campus_cruiser/internal/repository"
)

// UserStore is the persistence behind the student directory.
type UserStore interface {
	ListByRole(ctx context.Context, role string) ([]models.User, error)
	FindByID(ctx context.Context, id uint) (*models.User, error)
	FindStudentByRollNumber(ctx context.Context, rollNumber string) (*models.User, error)
	FindByIdentifier(ctx context.Context, identifier string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	UpdateFields(ctx context.Context, id uint, fields map[string]interface{}) error
	DeleteStudent(ctx context.Context, id uint) error
	DeleteAllStudents(ctx context.Context) (int64, error)
}

// StopFinder locates the stop assigned to a roll number.
type StopFinder interface {
	FindStopByRollNumber(ctx context.Context, rollNumber string) (*models.Route, *models.Stop, error)
}

// WelcomeSender delivers the welcome email for a new account.
type WelcomeSender interface {
	SendWelcome(ctx context.Context, in mail.WelcomeInput) bool
}

// StudentInput is an admin's student-creation submission.
type StudentInput struct {
	FullName    string `json:"fullName" validate:"required"`
	RollNumber  string `json:"rollNumber" validate:"required,alphanum,len=10"`
	Email       string `json:"email" validate:"required,email"`
	PhoneNumber string `json:"phoneNumber" validate:"omitempty,numeric,len=10"`
}

// ProfileInput is a profile update.
type ProfileInput struct {
	FullName    string `json:"fullName" validate:"required"`
	Email       string `json:"email" validate:"required,email"`
	PhoneNumber string `json:"phoneNumber" validate:"omitempty,numeric,len=10"`
}

// CreatedStudent carries the generated password, which is only available at creation time.
type CreatedStudent struct {
	Student          *models.User `json:"student"`
	Password         string       `json:"password"`
	WelcomeEmailSent bool         `json:"welcomeEmailSent"`
}

// Directory owns student identities. Deleting a student never touches the
// stops that reference their roll number; see Reconciler.OrphanedStops.
type Directory struct {
	users       UserStore
	stops       StopFinder
	welcome     WelcomeSender
	newPassword func() (string, error)
}

func NewDirectory(users UserStore, stops StopFinder, welcome WelcomeSender) *Directory {
	return &Directory{
		users:       users,
		stops:       stops,
		welcome:     welcome,
		newPassword: generatePassword,
	}
}

const passwordAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

func generatePassword() (string, error) {
	b := make([]byte, 8)
	limit := big.NewInt(int64(len(passwordAlphabet)))
	for i := range b {
		n, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", err
		}
		b[i] = passwordAlphabet[n.Int64()]
	}
	return string(b), nil
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func (d *Directory) ListStudents(ctx context.Context) ([]models.User, error) {
	return d.users.ListByRole(ctx, models.RoleStudent)
}

func (d *Directory) GetUser(ctx context.Context, id uint) (*models.User, error) {
	return d.users.FindByID(ctx, id)
}

// CreateStudent registers a student with a generated password and sends the
// welcome email. A failed email does not fail the creation.
func (d *Directory) CreateStudent(ctx context.Context, in StudentInput) (*CreatedStudent, error) {
	trimAll(&in.FullName, &in.RollNumber, &in.Email, &in.PhoneNumber)
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	in.RollNumber = strings.ToUpper(in.RollNumber)

	_, err := d.users.FindStudentByRollNumber(ctx, in.RollNumber)
	if err == nil {
		return nil, ErrDuplicateStudent
	}
	if !errors.Is(err, repository.ErrUserNotFound) {
		return nil, err
	}

	password, err := d.newPassword()
	if err != nil {
		return nil, fmt.Errorf("generate password: %w", err)
	}
	hash, err := hashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	student := &models.User{
		FullName:    in.FullName,
		Email:       in.Email,
		PhoneNumber: in.PhoneNumber,
		Role:        models.RoleStudent,
		RollNumber:  in.RollNumber,
		Password:    hash,
	}
	if err := d.users.Create(ctx, student); err != nil {
		if errors.Is(err, repository.ErrDuplicateUser) {
			return nil, ErrDuplicateStudent
		}
		return nil, err
	}
	logrus.WithField("roll_number", student.RollNumber).Info("Student created")

	created := &CreatedStudent{Student: student, Password: password}
	if d.welcome != nil {
		created.WelcomeEmailSent = d.welcome.SendWelcome(ctx, mail.WelcomeInput{
			FullName:    student.FullName,
			Email:       student.Email,
			PhoneNumber: student.PhoneNumber,
			Identifier:  student.RollNumber,
			Password:    password,
			Role:        student.Role,
		})
	}
	return created, nil
}

// UpdateProfile changes a user's name and contact details. The denormalized
// names on stops are refreshed by Reconciler.SyncStudentNames.
func (d *Directory) UpdateProfile(ctx context.Context, id uint, in ProfileInput) (*models.User, error) {
	trimAll(&in.FullName, &in.Email, &in.PhoneNumber)
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	err := d.users.UpdateFields(ctx, id, map[string]interface{}{
		"full_name":    in.FullName,
		"email":        in.Email,
		"phone_number": in.PhoneNumber,
	})
	if err != nil {
		return nil, err
	}
	return d.users.FindByID(ctx, id)
}

// ChangePassword replaces the password after checking the current one.
func (d *Directory) ChangePassword(ctx context.Context, id uint, current, next string) error {
	if next == "" {
		return newValidationError("newPassword", "New password is required")
	}
	user, err := d.users.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(current)) != nil {
		return ErrIncorrectPassword
	}
	hash, err := hashPassword(next)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	return d.users.UpdateFields(ctx, id, map[string]interface{}{"password": hash})
}

// Authenticate checks a roll number or admin username against its password.
func (d *Directory) Authenticate(ctx context.Context, identifier, password string) (*models.User, error) {
	user, err := d.users.FindByIdentifier(ctx, identifier)
	if errors.Is(err, repository.ErrUserNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// DeleteStudent removes one student. Removing a missing student succeeds.
func (d *Directory) DeleteStudent(ctx context.Context, id uint) error {
	if err := d.users.DeleteStudent(ctx, id); err != nil {
		return fmt.Errorf("delete student %d: %w", id, err)
	}
	logrus.WithField("user_id", id).Info("Student deleted")
	return nil
}

// DeleteAllStudents removes every student and returns how many were removed.
func (d *Directory) DeleteAllStudents(ctx context.Context) (int64, error) {
	n, err := d.users.DeleteAllStudents(ctx)
	if err != nil {
		return 0, fmt.Errorf("delete students: %w", err)
	}
	logrus.WithField("count", n).Info("All students deleted")
	return n, nil
}

// FindStudentRouteAndStop returns the route and stop assigned to rollNumber.
func (d *Directory) FindStudentRouteAndStop(ctx context.Context, rollNumber string) (*models.Route, *models.Stop, error) {
	if strings.TrimSpace(rollNumber) == "" {
		return nil, nil, newValidationError("rollNumber", "Roll number is required")
	}
	route, stop, err := d.stops.FindStopByRollNumber(ctx, rollNumber)
	if errors.Is(err, repository.ErrRouteNotFound) {
		return nil, nil, ErrNoAssignment
	}
	if err != nil {
		return nil, nil, err
	}
	return route, stop, nil
}
