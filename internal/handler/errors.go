package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/rs-labo46/ec-backoffice/internal/middleware"
	"github.com/rs-labo46/ec-backoffice/internal/usecase"
	"github.com/rs-labo46/ec-backoffice/internal/validator"

	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"
)

// 4xx/5xxの共通レスポンス
type ErrorResponse struct {
	Code    string           `json:"code"`
	Message string           `json:"message"`
	Errors  validator.Errors `json:"errors,omitempty"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

func writeError(c echo.Context, err error) error {
	if err == nil {
		return nil
	}
	if he, ok := usecase.AsHTTPError(err); ok {
		if he.Status >= http.StatusInternalServerError {
			logError(c, err)
		}
		return c.JSON(he.Status, ErrorResponse{Code: he.Code, Message: he.Message, Errors: he.Fields})
	}

	//500
	logError(c, err)
	return c.JSON(http.StatusInternalServerError, ErrorResponse{Code: usecase.CodeInternal, Message: "internal error"})
}

// echo自体のエラー（ルートなし、405など）もErrorResponseの形で返す
func HTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var ee *echo.HTTPError
	if errors.As(err, &ee) {
		msg := http.StatusText(ee.Code)
		if s, ok := ee.Message.(string); ok {
			msg = s
		}
		code := usecase.CodeBadRequest
		switch ee.Code {
		case http.StatusNotFound:
			code = usecase.CodeNotFound
		case http.StatusUnauthorized:
			code = usecase.CodeUnauthorized
		case http.StatusForbidden:
			code = usecase.CodeForbidden
		case http.StatusInternalServerError:
			code = usecase.CodeInternal
		}
		_ = c.JSON(ee.Code, ErrorResponse{Code: code, Message: msg})
		return
	}
	_ = writeError(c, err)
}

func logError(c echo.Context, err error) {
	log.WithFields(log.Fields{
		"component":  "http",
		"request_id": c.Response().Header().Get(echo.HeaderXRequestID),
		"path":       c.Path(),
	}).WithError(err).Error("request failed")
}

func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, ErrorResponse{Code: usecase.CodeBadRequest, Message: msg})
}

func unauthorized(c echo.Context) error {
	return c.JSON(http.StatusUnauthorized, ErrorResponse{Code: usecase.CodeUnauthorized, Message: "unauthenticated"})
}

// AuthJWTが入れたuser_idを取り出す
func getUserIDFromContext(c echo.Context) (int64, bool) {
	v := c.Get(middleware.CtxUserIDKey)
	if v == nil {
		return 0, false
	}

	id, ok := v.(int64)
	if !ok {
		return 0, false
	}

	return id, true
}

// :idを取り出す。数値でなければfalse
func parseIDParam(c echo.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
