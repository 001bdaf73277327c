package usecase

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/rs-labo46/ec-backoffice/internal/validator"
)

// エラーコード（レスポンスの"code"）
const (
	CodeValidation     = "validation_error"
	CodeBadRequest     = "bad_request"
	CodeUnauthorized   = "unauthorized"
	CodeForbidden      = "forbidden"
	CodeNotFound       = "not_found"
	CodeConflict       = "conflict"
	CodeAlreadyDeleted = "already_deleted"
	CodeNotDeleted     = "not_deleted"
	CodeNotSoftDeleted = "not_soft_deleted"
	CodeInternal       = "internal_error"
)

// Handlerがそのままレスポンスにする業務エラー
type HTTPError struct {
	Status  int
	Code    string
	Message string
	// 422のときだけ入る
	Fields validator.Errors
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%d: %s", e.Status, e.Message)
}

func NewHTTPError(status int, message string) error {
	return &HTTPError{
		Status:  status,
		Code:    codeFor(status),
		Message: message,
	}
}

// ソフトデリートの状態エラーなど、ステータスだけでは区別できないもの
func NewCodedError(status int, code, message string) error {
	return &HTTPError{
		Status:  status,
		Code:    code,
		Message: message,
	}
}

func NewValidationError(fields validator.Errors) error {
	return &HTTPError{
		Status:  http.StatusUnprocessableEntity,
		Code:    CodeValidation,
		Message: "The given data was invalid.",
		Fields:  fields,
	}
}

func AsHTTPError(err error) (*HTTPError, bool) {
	var he *HTTPError
	ok := errors.As(err, &he)
	return he, ok
}

func codeFor(status int) string {
	switch status {
	case http.StatusBadRequest:
		return CodeBadRequest
	case http.StatusUnauthorized:
		return CodeUnauthorized
	case http.StatusForbidden:
		return CodeForbidden
	case http.StatusNotFound:
		return CodeNotFound
	case http.StatusConflict:
		return CodeConflict
	case http.StatusUnprocessableEntity:
		return CodeValidation
	}
	return CodeInternal
}
