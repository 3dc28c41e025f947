package model

type SigninRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

type SignupRequest struct {
	FirstName       string `json:"firstName" validate:"max=100"`
	LastName        string `json:"lastName" validate:"max=100"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,min=8"`
	ConfirmPassword string `json:"confirmPassword" validate:"required,min=8"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refreshToken" validate:"omitempty,min=8"`
}

type ChangePasswordRequest struct {
	Password string `json:"password" validate:"required,min=7"`
}

type ChangeRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=Administrator Manager User"`
}

type CreateTopicRequest struct {
	Title            string `json:"title" validate:"required,min=3,max=255"`
	ShortDescription string `json:"shortDescription" validate:"required,min=5,max=500"`
	Description      string `json:"description" validate:"required,min=10"`
	StartDate        string `json:"startDate" validate:"required,datetime=2006-01-02T15:04:05Z07:00"`
	EndDate          string `json:"endDate" validate:"required,datetime=2006-01-02T15:04:05Z07:00"`
	Status           string `json:"status" validate:"omitempty,oneof=scheduled open closed"`
}

type SubmissionRequest struct {
	Text string `json:"text" validate:"required,min=1,max=5000"`
}
