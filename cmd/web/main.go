// @title           Natours API
// @version         1.0
// @description     Бронирование туров: туры, отзывы, пользователи, оплата через Stripe.
// @contact.name    Natours
// @contact.email   hello@natours.io
// @license.name    MIT
// @license.url     https://opensource.org/licenses/MIT
// @host            localhost:3000
// @BasePath        /

// @securityDefinitions.apikey BearerAuth
// @in                         header
// @name                       Authorization
// @description                Bearer <jwt>

package main

import (
	_ "natours_backend/docs"
	"natours_backend/internal/app"
)

func main() {
	app.Run()
}
