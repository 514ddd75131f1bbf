package services

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// PostgreSQL error codes for constraint violations
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// Error kinds. The web layer maps them to 400, 404 and 409; anything else is a 500.
var (
	ErrValidation = errors.New("validation failed")
	ErrNotFound   = errors.New("not found")
	ErrConflict   = errors.New("conflict")
)

// Error is a client-facing failure with a message safe to return as-is
type Error struct {
	Kind    error
	Message string
	Details interface{}
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Kind
}

// Invalid builds a validation error
func Invalid(message string, details ...interface{}) error {
	e := &Error{Kind: ErrValidation, Message: message}
	if len(details) > 0 {
		e.Details = details[0]
	}
	return e
}

// NotFound builds a not-found error for the named resource
func NotFound(resource string) error {
	return &Error{Kind: ErrNotFound, Message: resource + " not found"}
}

// Conflict builds a conflict error
func Conflict(format string, args ...interface{}) error {
	return &Error{Kind: ErrConflict, Message: fmt.Sprintf(format, args...)}
}

// Business rule failures shared by several services
var (
	ErrInsufficientBalance = &Error{Kind: ErrConflict, Message: "Insufficient balance"}
	ErrInsufficientStock   = &Error{Kind: ErrConflict, Message: "Insufficient stock"}
	ErrInsufficientPoints  = &Error{Kind: ErrConflict, Message: "Insufficient points"}
)

// Raw(...).Scan returns the driver's *pgconn.PgError untranslated
func isDuplicate(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey) || pgCode(err) == pgUniqueViolation
}

func isForeignKey(err error) bool {
	return errors.Is(err, gorm.ErrForeignKeyViolated) || pgCode(err) == pgForeignKeyViolation
}

func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}
