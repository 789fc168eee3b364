package sms

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/selorg/ops-api/internal/domain"
)

const fast2smsEndpoint = "https://www.fast2sms.com/dev/bulkV2"

// Fast2SMS sends via the Fast2SMS bulk API. Unlike the generic vendor its
// response contract is documented — a JSON "return" boolean — so the verdict
// comes from that field, not the heuristic classifier.
type Fast2SMS struct {
	apiKey string
	tr     *Transport
}

type fast2smsResponse struct {
	Return  bool   `json:"return"`
	Message any    `json:"message"`
	Code    string `json:"status_code,omitempty"`
}

func NewFast2SMS(apiKey string, tr *Transport) *Fast2SMS {
	return &Fast2SMS{apiKey: apiKey, tr: tr}
}

func (f *Fast2SMS) Name() string { return "fast2sms" }

func (f *Fast2SMS) Send(ctx context.Context, phone, code string, expiry time.Duration) SendResult {
	form := url.Values{}
	form.Set("route", "otp")
	form.Set("variables_values", code)
	form.Set("numbers", phone)

	headers := map[string]string{"authorization": f.apiKey}
	resp, err := f.tr.Request(ctx, http.MethodPost, fast2smsEndpoint, form, headers)
	if err != nil {
		return Classify(f.Name(), 0, "", err)
	}

	internal := fmt.Sprintf("fast2sms: status=%d body=%s", resp.StatusCode, truncate(resp.Body, 500))

	var parsed fast2smsResponse
	if jsonErr := json.Unmarshal([]byte(resp.Body), &parsed); jsonErr == nil && parsed.Return {
		return SendResult{Sent: true, InternalLog: internal}
	}

	detail := strings.ToLower(fmt.Sprintf("%v", resp.Body))
	switch {
	case resp.StatusCode == 401 || strings.Contains(detail, "invalid authentication"):
		return SendResult{
			ErrorCode:   domain.CodeSMSAuthFailure,
			UserMessage: "SMS service is temporarily unavailable",
			InternalLog: internal,
		}
	case strings.Contains(detail, "number"):
		return SendResult{
			ErrorCode:   domain.CodeSMSInvalidNumber,
			UserMessage: "The mobile number appears to be invalid",
			InternalLog: internal,
		}
	case strings.Contains(detail, "wallet") || strings.Contains(detail, "balance"):
		return SendResult{
			ErrorCode:   domain.CodeSMSInsufficientBalance,
			UserMessage: "SMS service is temporarily unavailable",
			InternalLog: internal,
		}
	default:
		return SendResult{
			ErrorCode:   domain.CodeSMSGatewayError,
			UserMessage: "Could not send OTP, please try again",
			InternalLog: internal,
		}
	}
}
