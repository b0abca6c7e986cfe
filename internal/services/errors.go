package services

import (
	"errors"
	"fmt"
	"net/http"

	"newsdesk-sections/internal/sections"
)

type ServiceError struct {
	Status  int
	Message string
}

func (e ServiceError) Error() string {
	return e.Message
}

func ErrNotFound(msg string) error {
	return ServiceError{Status: http.StatusNotFound, Message: msg}
}

func ErrBadRequest(msg string) error {
	return ServiceError{Status: http.StatusBadRequest, Message: msg}
}

func ErrConflict(msg string) error {
	return ServiceError{Status: http.StatusConflict, Message: msg}
}

func ErrUpstream(msg string) error {
	return ServiceError{Status: http.StatusBadGateway, Message: msg}
}

func WrapError(err error, msg string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", msg, err)
}

// validationError turns a rejected section configuration into a 400.
func validationError(err error) error {
	var verr *sections.ValidationError
	if errors.As(err, &verr) {
		return ErrBadRequest(verr.Message)
	}
	return err
}

func slugConflict(slug string) error {
	return ErrConflict(fmt.Sprintf("Slug %q is already in use.", slug))
}
