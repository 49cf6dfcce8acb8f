package services

import "errors"

// Auth errors
var (
	ErrInvalidCredential = errors.New("invalid credentials")
	ErrSessionNotFound   = errors.New("session not found")
	ErrSessionExpired    = errors.New("session expired")
	ErrSessionInactive   = errors.New("session inactive")
)

// Stock errors
var (
	// ErrInsufficientStock is wrapped with the name of the first failing item
	ErrInsufficientStock  = errors.New("insufficient stock")
	ErrUnknownReservation = errors.New("unknown reservation")
)

// Workflow errors
var (
	ErrOrderNotFound = errors.New("order not found")
	// ErrOrderNotPending marks a lost race on the terminal transition;
	// callers absorb it as a no-op rather than surfacing a failure
	ErrOrderNotPending = errors.New("order not pending")
)

// Inventory errors
var (
	ErrItemNotFound = errors.New("item not found")
	ErrItemExists   = errors.New("item already exists")
)
