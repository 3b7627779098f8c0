// Package response — единый формат ответов HTTP API.
package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Leganyst/reservation-engine/internal/apperr"
)

type Response struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Data    any            `json:"data,omitempty"`
	Details map[string]any `json:"details,omitempty"`
}

const (
	CodeOK           = "OK"
	CodeBadRequest   = "BAD_REQUEST"
	CodeUnauthorized = "UNAUTHORIZED"
	CodeForbidden    = "FORBIDDEN"
	CodeInternal     = "INTERNAL_ERROR"
)

type PageData struct {
	List   any   `json:"list"`
	Total  int64 `json:"total"`
	Limit  int   `json:"limit"`
	Offset int   `json:"offset"`
}

func OK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, Response{Code: CodeOK, Message: "success", Data: data})
}

func Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, Response{Code: CodeOK, Message: "success", Data: data})
}

func OKPage(c *gin.Context, list any, total int64, limit, offset int) {
	OK(c, PageData{List: list, Total: total, Limit: limit, Offset: offset})
}

func Error(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, Response{Code: code, Message: message})
}

func BadRequest(c *gin.Context, message string) {
	Error(c, http.StatusBadRequest, CodeBadRequest, message)
}

func Unauthorized(c *gin.Context, message string) {
	Error(c, http.StatusUnauthorized, CodeUnauthorized, message)
}

func Forbidden(c *gin.Context, message string) {
	Error(c, http.StatusForbidden, CodeForbidden, message)
}

// StatusOf переводит класс ошибки домена в HTTP-статус.
func StatusOf(kind apperr.Kind) int {
	switch kind {
	case apperr.KindValidation:
		return http.StatusBadRequest
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindConflict:
		return http.StatusConflict
	case apperr.KindForbidden:
		return http.StatusForbidden
	case apperr.KindGateway:
		return http.StatusBadGateway
	case apperr.KindIntegrity:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// Fail пишет ошибку сервиса. Неизвестные ошибки наружу не раскрываются и логируются.
func Fail(c *gin.Context, log *zap.Logger, err error) {
	ae, ok := apperr.As(err)
	if !ok {
		log.Error("request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
		_ = c.Error(err)
		Error(c, http.StatusInternalServerError, CodeInternal, "internal server error")
		return
	}

	status := StatusOf(ae.Kind)
	if status >= http.StatusInternalServerError {
		log.Warn("upstream failure", zap.String("code", ae.Code), zap.Error(err))
		_ = c.Error(err)
	}
	c.AbortWithStatusJSON(status, Response{Code: ae.Code, Message: ae.Message, Details: ae.Details})
}
