package services

import (
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	apperrors "fintrack/internal/errors"
	"fintrack/internal/models"
)

// BcryptVerifier stores PINs as bcrypt hashes.
type BcryptVerifier struct {
	Cost int
}

// Hash implements CredentialVerifier.
func (v BcryptVerifier) Hash(pin string) (string, error) {
	cost := v.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(pin), cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// Verify implements CredentialVerifier.
func (v BcryptVerifier) Verify(hash, pin string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(pin)) == nil
}

// userService handles user-related business logic.
type userService struct {
	db       *gorm.DB
	verifier CredentialVerifier
}

// NewUserService creates a new UserServicer. A nil verifier uses bcrypt.
func NewUserService(db *gorm.DB, verifier CredentialVerifier) UserServicer {
	if verifier == nil {
		verifier = BcryptVerifier{}
	}
	return &userService{db: db, verifier: verifier}
}

// Register creates a user with a unique username and a 4-8 digit PIN.
func (s *userService) Register(username, pin string) (*models.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || pin == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "username and PIN are required")
	}
	if !validPIN(pin) {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "PIN must be 4 to 8 digits")
	}

	var count int64
	if err := s.db.Model(&models.User{}).Where("LOWER(username) = LOWER(?)", username).Count(&count).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if count > 0 {
		return nil, apperrors.ErrDuplicateUsername
	}

	hash, err := s.verifier.Hash(pin)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	user := &models.User{
		Username:       username,
		PinHash:        hash,
		ClearanceLevel: 1,
	}
	if err := s.db.Create(user).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return user, nil
}

// Authenticate returns the user when username and PIN match. Unknown users
// and wrong PINs fail the same way.
func (s *userService) Authenticate(username, pin string) (*models.User, error) {
	var user models.User
	err := s.db.Where("LOWER(username) = LOWER(?)", strings.TrimSpace(username)).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	if !s.verifier.Verify(user.PinHash, pin) {
		return nil, apperrors.ErrInvalidCredentials
	}
	return &user, nil
}

// GetUserByID retrieves a user by ID
func (s *userService) GetUserByID(id string) (*models.User, error) {
	var user models.User
	if err := s.db.Where("id = ?", id).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &user, nil
}

func validPIN(pin string) bool {
	if len(pin) < 4 || len(pin) > 8 {
		return false
	}
	for _, r := range pin {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
