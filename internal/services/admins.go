package services

import (
	"fmt"
	"strings"
	"time"

	"github.com/zaqqye/apkhub_backend/internal/apperr"
	"github.com/zaqqye/apkhub_backend/internal/database"
	"github.com/zaqqye/apkhub_backend/internal/models"
	"github.com/zaqqye/apkhub_backend/internal/utils"
)

type AdminService struct {
	admins database.Document[models.Admin]
	now    func() time.Time
}

func NewAdminService(db *database.DB) *AdminService {
	return &AdminService{admins: db.Admins, now: time.Now}
}

func (s *AdminService) Authenticate(email, password string) (models.Admin, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return models.Admin{}, fmt.Errorf("%w: email and password required", apperr.ErrInvalidInput)
	}
	admins, err := s.admins.Load()
	if err != nil {
		return models.Admin{}, err
	}
	for _, a := range admins {
		if a.Email == email && utils.CheckPassword(a.Password, password) {
			return a, nil
		}
	}
	return models.Admin{}, apperr.ErrInvalidCredentials
}

func (s *AdminService) Get(email string) (models.Admin, error) {
	admins, err := s.admins.Load()
	if err != nil {
		return models.Admin{}, err
	}
	if a, ok := findAdmin(admins, email); ok {
		return a, nil
	}
	return models.Admin{}, fmt.Errorf("admin %q: %w", email, apperr.ErrNotFound)
}

// IsOwner reports whether email still belongs to an owner record.
func (s *AdminService) IsOwner(email string) (bool, error) {
	admins, err := s.admins.Load()
	if err != nil {
		return false, err
	}
	return requireOwner(admins, email) == nil, nil
}

// Create adds an admin-role account on behalf of actor, who must be an owner.
func (s *AdminService) Create(actor, email, password string) (models.Admin, error) {
	email = strings.TrimSpace(email)
	var created models.Admin
	err := s.admins.Update(func(admins []models.Admin) ([]models.Admin, error) {
		if err := requireOwner(admins, actor); err != nil {
			return nil, err
		}
		if email == "" || password == "" {
			return nil, fmt.Errorf("%w: email and password required", apperr.ErrInvalidInput)
		}
		if _, ok := findAdmin(admins, email); ok {
			return nil, apperr.ErrDuplicateEmail
		}
		hashed, err := utils.HashPassword(password)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		created = models.Admin{
			Email:     email,
			Password:  hashed,
			Role:      models.RoleAdmin,
			CreatedAt: s.now().UTC(),
			CreatedBy: actor,
		}
		return append(admins, created), nil
	})
	if err != nil {
		return models.Admin{}, err
	}
	return created, nil
}

func (s *AdminService) List(actor string) ([]models.AdminView, error) {
	admins, err := s.admins.Load()
	if err != nil {
		return nil, err
	}
	if err := requireOwner(admins, actor); err != nil {
		return nil, err
	}
	views := make([]models.AdminView, 0, len(admins))
	for _, a := range admins {
		views = append(views, a.View())
	}
	return views, nil
}

func (s *AdminService) Delete(actor, target string) error {
	return s.admins.Update(func(admins []models.Admin) ([]models.Admin, error) {
		if err := requireOwner(admins, actor); err != nil {
			return nil, err
		}
		if target == actor {
			return nil, apperr.ErrSelfDeleteForbidden
		}
		kept := make([]models.Admin, 0, len(admins))
		for _, a := range admins {
			if a.Email != target {
				kept = append(kept, a)
			}
		}
		if len(kept) == len(admins) {
			return nil, fmt.Errorf("admin %q: %w", target, apperr.ErrNotFound)
		}
		return kept, nil
	})
}

func requireOwner(admins []models.Admin, email string) error {
	a, ok := findAdmin(admins, email)
	if !ok || a.Role != models.RoleOwner {
		return fmt.Errorf("%w: only owner can manage admins", apperr.ErrForbidden)
	}
	return nil
}

func findAdmin(admins []models.Admin, email string) (models.Admin, bool) {
	for _, a := range admins {
		if a.Email == email {
			return a, true
		}
	}
	return models.Admin{}, false
}
