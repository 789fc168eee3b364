package sms

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/selorg/ops-api/internal/domain"
)

// Gateways here rarely use HTTP status codes meaningfully: most return 200 OK
// for everything and put the real verdict in prose or a JSON status field.
// Delivery is therefore decided in two steps. Delivered handles 2xx bodies:
// absence of any failure signal is trusted as success, but an explicit failure
// signal is authoritative even under HTTP 200. Classify turns everything else
// into a structured failure by walking an ordered rule table, first match wins.

var numberWords = []string{"mobile", "number", "phone", "recipient", "msisdn"}

var failureWords = []string{
	"error", "fail", "invalid", "rejected", "missing", "denied",
	"unable", "not sent", "blocked", "expired",
}

// rule maps a failure signature to a taxonomy code and a user-safe message.
// The raw gateway text never reaches the user; it goes to the internal log.
type rule struct {
	code    string
	message string
	match   func(status int, lower string) bool
}

var rules = []rule{
	{
		code:    domain.CodeSMSGatewayContract,
		message: "Could not send OTP, please try again",
		match: func(status int, lower string) bool {
			// The gateway never saw the number parameter — we called it wrong,
			// which is distinct from a delivery failure.
			if !containsAny(lower, numberWords...) {
				return false
			}
			return containsAny(lower, "missing", "not provided", "mandatory", "required param", "parameter is required")
		},
	},
	{
		code:    domain.CodeSMSAuthFailure,
		message: "SMS service is temporarily unavailable",
		match: func(status int, lower string) bool {
			return status == 401 ||
				containsAny(lower, "unauthorized", "unauthorised", "authentication fail", "auth fail",
					"invalid api key", "invalid apikey", "invalid authkey", "invalid key", "access denied")
		},
	},
	{
		code:    domain.CodeSMSInvalidNumber,
		message: "The mobile number appears to be invalid",
		match: func(status int, lower string) bool {
			if containsAny(lower, "invalid", "required") && containsAny(lower, numberWords...) {
				return true
			}
			return status >= 400 && status < 500 && containsAny(lower, numberWords...)
		},
	},
	{
		code:    domain.CodeSMSDLTNotApproved,
		message: "SMS service is temporarily unavailable",
		match: func(status int, lower string) bool {
			return containsAny(lower, "dlt", "template", "entity", "principal entity", "sender id not approved")
		},
	},
	{
		code:    domain.CodeSMSInsufficientBalance,
		message: "SMS service is temporarily unavailable",
		match: func(status int, lower string) bool {
			return containsAny(lower, "balance", "recharge", "insufficient credit", "no credit", "low credit")
		},
	},
	{
		code:    domain.CodeSMSDailyLimit,
		message: "SMS limit reached, please try again later",
		match: func(status int, lower string) bool {
			return containsAny(lower, "daily limit", "limit exceeded", "quota", "max limit")
		},
	},
	{
		code:    domain.CodeSMSCarrierBlock,
		message: "This number cannot receive SMS right now",
		match: func(status int, lower string) bool {
			return containsAny(lower, "dnd", "do not disturb", "blacklist", "operator block", "carrier block", "blocked by")
		},
	},
}

// Classify converts a provider response (or transport error) into a structured
// failure. Callers must run Delivered first; Classify never reports success.
func Classify(provider string, status int, body string, transportErr error) SendResult {
	if transportErr != nil {
		if errors.Is(transportErr, ErrTimeout) {
			return SendResult{
				ErrorCode:   domain.CodeSMSTimeout,
				UserMessage: "SMS service timed out, please try again",
				InternalLog: fmt.Sprintf("%s: transport timeout: %v", provider, transportErr),
			}
		}
		return SendResult{
			ErrorCode:   domain.CodeSMSGatewayError,
			UserMessage: "Could not send OTP, please try again",
			InternalLog: fmt.Sprintf("%s: transport error: %v", provider, transportErr),
		}
	}

	lower := strings.ToLower(body)
	for _, r := range rules {
		if r.match(status, lower) {
			return SendResult{
				ErrorCode:   r.code,
				UserMessage: r.message,
				InternalLog: fmt.Sprintf("%s: status=%d body=%s", provider, status, truncate(body, 500)),
			}
		}
	}
	return SendResult{
		ErrorCode:   domain.CodeSMSGatewayError,
		UserMessage: "Could not send OTP, please try again",
		InternalLog: fmt.Sprintf("%s: status=%d body=%s", provider, status, truncate(body, 500)),
	}
}

// Delivered reports whether a gateway response should be treated as a
// successful send. Only meaningful for 2xx responses.
func Delivered(status int, body string) bool {
	if status < 200 || status > 299 {
		return false
	}
	trimmed := strings.TrimSpace(body)
	if trimmed == "" {
		return true
	}
	if verdict, ok := jsonStatusVerdict(trimmed); ok {
		return verdict
	}
	return !containsAny(strings.ToLower(trimmed), failureWords...)
}

// jsonStatusVerdict inspects explicit JSON status fields. The second return
// is false when the body is not JSON or carries no status field, in which
// case the word heuristics decide.
func jsonStatusVerdict(body string) (bool, bool) {
	var payload map[string]interface{}
	if err := json.Unmarshal([]byte(body), &payload); err != nil {
		return false, false
	}
	for _, key := range []string{"status", "type", "state", "message_status"} {
		v, ok := payload[key]
		if !ok {
			continue
		}
		switch strings.ToLower(fmt.Sprintf("%v", v)) {
		case "success", "ok", "sent", "delivered", "submitted", "queued", "accepted", "true", "1":
			return true, true
		default:
			return false, true
		}
	}
	return false, false
}

func containsAny(s string, words ...string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
