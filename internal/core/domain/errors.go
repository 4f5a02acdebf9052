package domain

import "errors"

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrUsernameTaken      = errors.New("username already exists")
	ErrEmailTaken         = errors.New("email already exists")
	ErrMalformedHeader    = errors.New("invalid authentication header")
	ErrUnauthenticated    = errors.New("could not validate credentials")
	ErrForbidden          = errors.New("you are not the owner of this resource")
	ErrUserNotFound       = errors.New("user not found")
	ErrPostNotFound       = errors.New("blog post not found")
	ErrInvalidOTP         = errors.New("invalid or expired otp")
	ErrInvalidInput       = errors.New("invalid input")
	ErrInternal           = errors.New("internal error")
)
