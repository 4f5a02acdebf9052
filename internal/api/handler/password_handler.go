package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/quillpost/blog-api/internal/core/domain"
	"github.com/quillpost/blog-api/internal/core/ports"
)

type PasswordHandler struct {
	passwords ports.PasswordService
}

func NewPasswordHandler(passwords ports.PasswordService) *PasswordHandler {
	return &PasswordHandler{passwords: passwords}
}

// RequestReset mails a password reset link.
//
// @Summary      Request a password reset
// @Tags         password
// @Accept       json
// @Produce      json
// @Param        body  body      resetRequestRequest  true  "Account email"
// @Success      200   {object}  messageResponse
// @Failure      400   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Router       /password/request [post]
func (h *PasswordHandler) RequestReset(c echo.Context) error {
	var req resetRequestRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	if err := h.passwords.RequestReset(c.Request().Context(), req.Email); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messageResponse{Msg: "Email has been sent with instructions to reset your password."})
}

// Reset sets a new password using the token from the reset link.
//
// @Summary      Reset password
// @Tags         password
// @Accept       json
// @Produce      json
// @Param        token  query     string                true  "Reset token"
// @Param        body   body      resetPasswordRequest  true  "New password"
// @Success      200    {object}  userResponse
// @Failure      400    {object}  errorResponse
// @Failure      401    {object}  errorResponse
// @Failure      404    {object}  errorResponse
// @Router       /password/reset [put]
func (h *PasswordHandler) Reset(c echo.Context) error {
	token := c.QueryParam("token")
	if token == "" {
		return domain.ErrUnauthenticated
	}

	var req resetPasswordRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	user, err := h.passwords.ResetPassword(c.Request().Context(), token, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toUserResponse(user))
}
