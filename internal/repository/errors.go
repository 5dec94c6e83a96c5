package repository

import "errors"

var (
	ErrRouteNotFound = errors.New("route not found")
	ErrUserNotFound  = errors.New("user not found")
	ErrDuplicateUser = errors.New("user already exists")
)
