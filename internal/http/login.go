package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const tokenType = "Bearer"

func (h *Handler) loginUser(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, codeInvalidInput, err.Error())
		return
	}
	if req.Username == "" || req.Password == "" {
		writeError(c, http.StatusBadRequest, codeInvalidInput, "username and password are required")
		return
	}

	user, err := h.users.Authenticate(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		h.metrics.logins.WithLabelValues("failure").Inc()
		h.fail(c, err)
		return
	}

	token, err := h.tokens.Issue(user.Username)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.metrics.logins.WithLabelValues("success").Inc()
	h.log(c).WithField("user", user.Username).Info("issued token")

	respond(c, http.StatusOK, LoginResponse{
		Token:     token,
		TokenType: tokenType,
		ExpiresIn: int64(h.tokens.TTL().Seconds()),
	}, "Login successful")
}
