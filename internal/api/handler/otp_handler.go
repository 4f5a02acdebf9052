package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/quillpost/blog-api/internal/api/metrics"
	"github.com/quillpost/blog-api/internal/core/domain"
	"github.com/quillpost/blog-api/internal/core/ports"
)

type OTPHandler struct {
	verification ports.VerificationService
}

func NewOTPHandler(verification ports.VerificationService) *OTPHandler {
	return &OTPHandler{verification: verification}
}

// Request mails a fresh verification code to the caller.
//
// @Summary      Request an email verification code
// @Tags         otp
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  messageResponse
// @Failure      401  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /otp [get]
func (h *OTPHandler) Request(c echo.Context) error {
	caller, err := callerFrom(c)
	if err != nil {
		return err
	}

	if err := h.verification.RequestOTP(c.Request().Context(), caller); err != nil {
		return err
	}

	metrics.OTPRequestsTotal.Inc()
	return c.JSON(http.StatusOK, messageResponse{Msg: "OTP has been sent to your email"})
}

// Verify marks the caller's email as verified.
//
// @Summary      Verify email with a code
// @Tags         otp
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      verifyOTPRequest  true  "Verification code"
// @Success      200   {object}  messageResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Router       /otp [post]
func (h *OTPHandler) Verify(c echo.Context) error {
	caller, err := callerFrom(c)
	if err != nil {
		return err
	}

	var req verifyOTPRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	if err := h.verification.VerifyOTP(c.Request().Context(), caller, req.OTP); err != nil {
		if errors.Is(err, domain.ErrInvalidOTP) {
			metrics.OTPVerificationsTotal.WithLabelValues("invalid").Inc()
		} else {
			metrics.OTPVerificationsTotal.WithLabelValues("error").Inc()
		}
		return err
	}

	metrics.OTPVerificationsTotal.WithLabelValues("verified").Inc()
	return c.JSON(http.StatusOK, messageResponse{Msg: "User successfully verified"})
}
