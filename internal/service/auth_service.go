package service

import (
	"errors"
	"unicode/utf8"

	"github.com/deanDev5200/web-aspirasi/internal/auth"
	"github.com/deanDev5200/web-aspirasi/internal/credentials"
	"github.com/deanDev5200/web-aspirasi/internal/metrics"
	"github.com/deanDev5200/web-aspirasi/internal/models"
)

const MinPasswordLength = 6

type AuthService struct {
	creds *credentials.Store
}

func NewAuthService(creds *credentials.Store) *AuthService {
	return &AuthService{creds: creds}
}

// Login checks username and password against the stored credentials. There
// is no session; a nil error is the whole result.
func (s *AuthService) Login(username, password string) error {
	if username == "" || password == "" {
		return invalid("Username and password are required")
	}
	c, err := s.creds.Get()
	if err != nil {
		return err
	}
	ok := username == c.Username && auth.CheckPassword(password, c.PasswordHash)
	metrics.RecordLogin(ok)
	if !ok {
		return unauthorized("Invalid username or password")
	}
	return nil
}

func (s *AuthService) ChangePassword(current, next string) error {
	if current == "" || next == "" {
		return invalid("Current password and new password are required")
	}
	if err := checkNewPassword(next); err != nil {
		return err
	}

	hash, err := s.creds.Hash(next)
	if err != nil {
		return err
	}

	errMismatch := errors.New("mismatch")
	err = s.creds.Update(func(c *models.Credentials) error {
		if !auth.CheckPassword(current, c.PasswordHash) {
			return errMismatch
		}
		c.PasswordHash = hash
		return nil
	})
	if errors.Is(err, errMismatch) {
		return unauthorized("Current password is incorrect")
	}
	return err
}

// ResetPassword replaces the password without the current one. It is for
// operators with access to the credential file, never exposed over HTTP.
func (s *AuthService) ResetPassword(next string) error {
	if next == "" {
		return invalid("New password is required")
	}
	if err := checkNewPassword(next); err != nil {
		return err
	}
	return s.creds.SetPassword(next)
}

func checkNewPassword(next string) error {
	if utf8.RuneCountInString(next) < MinPasswordLength {
		return invalid("New password must be at least 6 characters")
	}
	if len(next) > auth.MaxPasswordBytes {
		return invalid("New password must be at most 72 bytes")
	}
	return nil
}

func (s *AuthService) Profile() (*models.ProfileResponse, error) {
	c, err := s.creds.Get()
	if err != nil {
		return nil, err
	}
	return &models.ProfileResponse{Username: c.Username}, nil
}
