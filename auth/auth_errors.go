package auth

import "errors"

var (
	// InvalidCredentialsErr covers both unknown username and wrong password.
	// The two cases are never distinguishable to a caller.
	InvalidCredentialsErr = errors.New("invalid credentials")

	// UnauthenticatedErr means no valid, unexpired session was presented.
	UnauthenticatedErr = errors.New("unauthenticated")

	// ForbiddenErr means the session is valid but the role is insufficient.
	ForbiddenErr = errors.New("forbidden")

	UsernameTakenErr = errors.New("username already taken")
	EmptyPasswordErr = errors.New("password is required")
)
