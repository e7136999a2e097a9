package dto

// UpdateMeRequest - только name, email и фото; пароль здесь не меняется
type UpdateMeRequest struct {
	Name            *string `json:"name" validate:"omitempty,min=1,max=80"`
	Email           *string `json:"email" validate:"omitempty,email"`
	Photo           string  `json:"-"`
	Password        string  `json:"password"`
	PasswordConfirm string  `json:"passwordConfirm"`
}

func (r *UpdateMeRequest) TouchesPassword() bool {
	return r.Password != "" || r.PasswordConfirm != ""
}
