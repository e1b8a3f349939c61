package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"alertify/internal/auth"
	"alertify/internal/domain"
)

const (
	codeNotFound           = "NOT_FOUND"
	codeInvalidInput       = "INVALID_INPUT"
	codeAlreadyExists      = "ALREADY_EXISTS"
	codeInvalidCredentials = "INVALID_CREDENTIALS"
	codeUnauthorized       = "UNAUTHORIZED"
	codeTooManyRequests    = "TOO_MANY_REQUESTS"
	codeInternal           = "INTERNAL_ERROR"
)

type errorMapping struct {
	status int
	code   string
}

var errorStatusMap = map[error]errorMapping{
	domain.ErrNotFound:              {http.StatusNotFound, codeNotFound},
	domain.ErrInvalidInput:          {http.StatusBadRequest, codeInvalidInput},
	domain.ErrAlreadyExists:         {http.StatusConflict, codeAlreadyExists},
	domain.ErrInvalidCredentials:    {http.StatusUnauthorized, codeInvalidCredentials},
	auth.ErrTokenMalformedOrInvalid: {http.StatusUnauthorized, codeUnauthorized},
}

func mappingFromError(err error) errorMapping {
	for target, m := range errorStatusMap {
		if errors.Is(err, target) {
			return m
		}
	}
	return errorMapping{http.StatusInternalServerError, codeInternal}
}

type envelope struct {
	Data    any    `json:"data"`
	Message string `json:"message"`
}

type errorEnvelope struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func respond(c *gin.Context, status int, data any, message string) {
	c.JSON(status, envelope{Data: data, Message: message})
}

func writeError(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, errorEnvelope{Error: code, Message: message})
}

// fail maps a service error onto the error envelope. Unexpected errors are
// logged and hidden behind a generic message.
func (h *Handler) fail(c *gin.Context, err error) {
	m := mappingFromError(err)
	if m.status >= http.StatusInternalServerError {
		h.log(c).WithError(err).Error("request failed")
		writeError(c, m.status, m.code, "internal server error")
		return
	}
	writeError(c, m.status, m.code, err.Error())
}
