package model

type APIResponse struct {
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
	Meta    *Meta  `json:"meta,omitempty"`
}

type Meta struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

// FieldError describes one failed validation rule on a request field.
type FieldError struct {
	Field string `json:"field"`
	Rule  string `json:"rule"`
}
