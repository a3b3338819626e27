package services

import (
	"fmt"
	"strings"

	"github.com/zaqqye/apkhub_backend/internal/apperr"
	"github.com/zaqqye/apkhub_backend/internal/database"
	"github.com/zaqqye/apkhub_backend/internal/models"
	"github.com/zaqqye/apkhub_backend/internal/utils"
)

type UserService struct {
	users database.Document[models.User]
}

func NewUserService(db *database.DB) *UserService {
	return &UserService{users: db.Users}
}

type SignupInput struct {
	Name     string
	Email    string
	Phone    string
	Age      string
	Password string
}

// Create registers a user; emails are unique.
func (s *UserService) Create(in SignupInput) (models.User, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	if in.Name == "" || in.Email == "" || in.Password == "" {
		return models.User{}, fmt.Errorf("%w: name, email and password are required", apperr.ErrInvalidInput)
	}
	hashed, err := utils.HashPassword(in.Password)
	if err != nil {
		return models.User{}, fmt.Errorf("hash password: %w", err)
	}
	user := models.User{
		Name:     in.Name,
		Email:    in.Email,
		Phone:    strings.TrimSpace(in.Phone),
		Age:      strings.TrimSpace(in.Age),
		Password: hashed,
	}
	err = s.users.Update(func(users []models.User) ([]models.User, error) {
		for _, u := range users {
			if u.Email == user.Email {
				return nil, apperr.ErrDuplicateEmail
			}
		}
		return append(users, user), nil
	})
	if err != nil {
		return models.User{}, err
	}
	return user, nil
}

// Authenticate returns the user whose email and password both match.
func (s *UserService) Authenticate(email, password string) (models.User, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return models.User{}, apperr.ErrInvalidCredentials
	}
	users, err := s.users.Load()
	if err != nil {
		return models.User{}, err
	}
	for _, u := range users {
		if u.Email == email && utils.CheckPassword(u.Password, password) {
			return u, nil
		}
	}
	return models.User{}, apperr.ErrInvalidCredentials
}
