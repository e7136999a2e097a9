package contextkeys

// Используем кастомный тип, чтобы избежать коллизий
type contextKey string

// DBContextKey - это ключ, по которому мы будем хранить *gorm.DB в context
const DBContextKey = contextKey("db")

// Ключи gin.Context, которые выставляет Protect/SoftAuth
const (
	UserContextKey   = contextKey("user")
	UserIDContextKey = contextKey("userID")
)
