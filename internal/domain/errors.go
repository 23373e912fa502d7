package domain

import "errors"

// Taxonomia de errores del nucleo. Los handlers HTTP mapean con errors.Is:
// ErrInvalidInput/ErrExpired -> 400, ErrNotFound -> 404, ErrConflict -> 409,
// ErrUpstream y el resto -> 500 con cuerpo generico.
var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("status conflict")
	ErrExpired      = errors.New("transaction expired")
	ErrUpstream     = errors.New("upstream failure")
)
