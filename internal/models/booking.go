package models

type Booking struct {
	BaseModel
	Tour  TourRef `gorm:"column:tour_id;type:uuid;not null;index" json:"tour" validate:"required,uuid"`
	User  UserRef `gorm:"column:user_id;type:uuid;not null;index" json:"user" validate:"required,uuid"`
	Price float64 `gorm:"not null" json:"price" validate:"required,gt=0"`
	Paid  bool    `gorm:"not null;default:true" json:"paid"`

	// Идемпотентность вебхука: одна сессия оплаты - одно бронирование
	StripeSessionID *string `gorm:"uniqueIndex" json:"-"`
}

func NewBooking() *Booking {
	return &Booking{Paid: true}
}
