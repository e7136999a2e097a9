package auth

import "natours_backend/internal/models"

// Наборы ролей, которые маршруты объявляют для гейта доступа
var (
	RolesStaff        = []models.UserRole{models.UserRoleAdmin, models.UserRoleLeadGuide, models.UserRoleGuide}
	RolesTourManagers = []models.UserRole{models.UserRoleAdmin, models.UserRoleLeadGuide}
	RolesReviewers    = []models.UserRole{models.UserRoleUser}
	RolesReviewEditor = []models.UserRole{models.UserRoleUser, models.UserRoleAdmin}
	RolesAdmin        = []models.UserRole{models.UserRoleAdmin}
)

// HasRole проверяет, входит ли роль в разрешенный набор
func HasRole(role models.UserRole, allowed ...models.UserRole) bool {
	for _, r := range allowed {
		if r == role {
			return true
		}
	}
	return false
}
