package model

import "errors"

var (
	// User related errors
	ErrUserNotFound      = errors.New("user not found")
	ErrUserAlreadyExists = errors.New("user already exists")

	// Token related errors
	ErrTokenNotFound = errors.New("token not found")

	// Topic related errors
	ErrTopicNotFound       = errors.New("topic not found")
	ErrTopicNotOpen        = errors.New("topic not open")
	ErrSubmissionNotFound  = errors.New("submission not found")
	ErrTopicResultNotFound = errors.New("topic result not found")

	// Permission/Access related errors
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")

	// Generic errors
	ErrInvalidInput = errors.New("invalid input")
)
