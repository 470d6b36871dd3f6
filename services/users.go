package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/argon2"
	"gorm.io/gorm"

	"tenet/db"
	"tenet/models"
)

const handleDomain = "tenetapp.space"

var ErrInvalidCredentials = errors.New("invalid credentials")

type UserService struct{}

func NewUserService() *UserService {
	return &UserService{}
}

// Provision registers a user: checks username uniqueness, derives the
// public handle and a decentralized identifier, and persists the profile.
func (s *UserService) Provision(ctx context.Context, username, name, password string) (*models.User, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	if username == "" || password == "" {
		return nil, fmt.Errorf("%w: username and password are required", ErrRejected)
	}

	var taken int64
	err := db.GetReadOnlyDB(ctx).Model(&models.User{}).Where("username = ?", username).Count(&taken).Error
	if err != nil {
		return nil, err
	}
	if taken > 0 {
		return nil, ErrUsernameTaken
	}

	passwordHash, err := hashPassword(password)
	if err != nil {
		return nil, err
	}

	handle := fmt.Sprintf("%s.%s", username, handleDomain)
	user := &models.User{
		Username:        username,
		Name:            name,
		Handle:          handle,
		DID:             fmt.Sprintf("did:plc:%s:%d", handle, time.Now().UnixNano()),
		Password:        passwordHash,
		ProvisionStatus: models.ProvisionProvisioned,
	}
	if err := db.GetWriteDB(ctx).Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// Login verifies the password and rotates the user's session token.
func (s *UserService) Login(ctx context.Context, username, password string) (string, *models.User, error) {
	var user models.User
	err := db.GetReadOnlyDB(ctx).Where("username = ?", strings.ToLower(strings.TrimSpace(username))).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, err
	}

	if !verifyPassword(user.Password, password) {
		return "", nil, ErrInvalidCredentials
	}

	// One active token per user.
	if err := s.Logout(ctx, user.ID); err != nil {
		return "", nil, err
	}

	tokenBytes := make([]byte, 32)
	if _, err := rand.Read(tokenBytes); err != nil {
		return "", nil, err
	}
	token := hex.EncodeToString(tokenBytes)

	err = db.GetWriteDB(ctx).Create(&models.UserTokens{
		UserID: user.ID,
		Token:  token,
	}).Error
	if err != nil {
		return "", nil, err
	}
	return token, &user, nil
}

func (s *UserService) Logout(ctx context.Context, userID int64) error {
	return db.GetWriteDB(ctx).Where("user_id = ?", userID).Delete(&models.UserTokens{}).Error
}

// UserByToken resolves a session token to its user.
func (s *UserService) UserByToken(ctx context.Context, token string) (*models.User, error) {
	var row models.UserTokens
	err := db.GetReadOnlyDB(ctx).Where("token = ?", token).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUnauthenticated
		}
		return nil, err
	}
	return s.GetUser(ctx, row.UserID)
}

func (s *UserService) GetUser(ctx context.Context, userID int64) (*models.User, error) {
	var user models.User
	err := db.GetReadOnlyDB(ctx).First(&user, userID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUnauthenticated
		}
		return nil, err
	}
	return &user, nil
}

func hashPassword(password string) (string, error) {
	salt := make([]byte, 16)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}
	hash := argon2.IDKey([]byte(password), salt, 1, 64*1024, 4, 32)
	return hex.EncodeToString(salt) + "$" + hex.EncodeToString(hash), nil
}

func verifyPassword(stored, password string) bool {
	parts := strings.Split(stored, "$")
	if len(parts) != 2 {
		return false
	}
	salt, err := hex.DecodeString(parts[0])
	if err != nil {
		return false
	}
	hash := argon2.IDKey([]byte(password), salt, 1, 64*1024, 4, 32)
	return hex.EncodeToString(hash) == parts[1]
}
