package domain

import "errors"

// Sentinel errors for domain-level error discrimination.
// Services wrap these so handlers can map to HTTP status codes without leaking infrastructure details.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrBadRequest   = errors.New("bad request")
	ErrLocked       = errors.New("locked")
	ErrUnavailable  = errors.New("temporarily unavailable")
)

// Stable user-facing error codes. Clients switch on these; the strings are part
// of the API contract and must not change.
const (
	CodeInvalidPhone    = "INVALID_PHONE"
	CodeRateLimit       = "RATE_LIMIT"
	CodeOTPNotFound     = "OTP_NOT_FOUND"
	CodeOTPExpired      = "OTP_EXPIRED"
	CodeIncorrectOTP    = "INCORRECT_OTP"
	CodeTooManyAttempts = "TOO_MANY_ATTEMPTS"
)

// SMS delivery error codes, produced by the classifier in internal/sms and
// passed through to clients verbatim.
const (
	CodeSMSInvalidNumber       = "SMS_INVALID_NUMBER"
	CodeSMSDLTNotApproved      = "SMS_DLT_NOT_APPROVED"
	CodeSMSInsufficientBalance = "SMS_INSUFFICIENT_BALANCE"
	CodeSMSDailyLimit          = "SMS_DAILY_LIMIT"
	CodeSMSCarrierBlock        = "SMS_CARRIER_BLOCK"
	CodeSMSAuthFailure         = "SMS_AUTH_FAILURE"
	CodeSMSTimeout             = "SMS_TIMEOUT"
	CodeSMSGatewayError        = "SMS_GATEWAY_ERROR"
	CodeSMSGatewayContract     = "SMS_GATEWAY_CONTRACT_ERROR"
)
