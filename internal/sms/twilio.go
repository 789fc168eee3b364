package sms

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/selorg/ops-api/internal/domain"
)

const twilioBaseURL = "https://api.twilio.com/2010-04-01"

// Twilio sends via the Twilio Messages API (global, account based, form POST
// with basic auth). Twilio's contract is fully documented: a 2xx with a
// message SID means accepted, anything else carries a numeric error code. The
// heuristic classifier is not used here.
type Twilio struct {
	accountSID string
	authToken  string
	from       string
	tr         *Transport
}

type twilioResponse struct {
	SID     string `json:"sid"`
	Status  string `json:"status"`
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func NewTwilio(accountSID, authToken, from string, tr *Transport) *Twilio {
	return &Twilio{accountSID: accountSID, authToken: authToken, from: from, tr: tr}
}

func (t *Twilio) Name() string { return "twilio" }

func (t *Twilio) Send(ctx context.Context, phone, code string, expiry time.Duration) SendResult {
	form := url.Values{}
	form.Set("To", "+91"+phone)
	form.Set("From", t.from)
	form.Set("Body", RenderTemplate("", code, expiry))

	endpoint := fmt.Sprintf("%s/Accounts/%s/Messages.json", twilioBaseURL, t.accountSID)
	auth := base64.StdEncoding.EncodeToString([]byte(t.accountSID + ":" + t.authToken))
	headers := map[string]string{"Authorization": "Basic " + auth}

	resp, err := t.tr.Request(ctx, http.MethodPost, endpoint, form, headers)
	if err != nil {
		return Classify(t.Name(), 0, "", err)
	}

	internal := fmt.Sprintf("twilio: status=%d body=%s", resp.StatusCode, truncate(resp.Body, 500))

	var parsed twilioResponse
	_ = json.Unmarshal([]byte(resp.Body), &parsed)

	if resp.StatusCode >= 200 && resp.StatusCode < 300 && parsed.SID != "" {
		return SendResult{Sent: true, InternalLog: internal}
	}

	// Error codes per the Messages API reference.
	switch {
	case resp.StatusCode == 401 || parsed.Code == 20003:
		return SendResult{
			ErrorCode:   domain.CodeSMSAuthFailure,
			UserMessage: "SMS service is temporarily unavailable",
			InternalLog: internal,
		}
	case parsed.Code == 21211 || parsed.Code == 21214 || parsed.Code == 21614:
		return SendResult{
			ErrorCode:   domain.CodeSMSInvalidNumber,
			UserMessage: "The mobile number appears to be invalid",
			InternalLog: internal,
		}
	case parsed.Code == 20429 || resp.StatusCode == 429:
		return SendResult{
			ErrorCode:   domain.CodeSMSDailyLimit,
			UserMessage: "SMS limit reached, please try again later",
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
