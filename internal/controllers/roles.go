package controllers

import "github.com/zaqqye/apkhub_backend/internal/models"

var adminRoles = map[string]struct{}{
	models.RoleOwner: {},
	models.RoleAdmin: {},
}

func IsAdminRole(role string) bool {
	_, ok := adminRoles[role]
	return ok
}
