package sms

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

const msg91Endpoint = "https://control.msg91.com/api/v5/otp"

// MSG91 sends via the MSG91 OTP API (regional, DLT template based,
// query-parameter GET). Its error responses are prose and inconsistent, so
// failures go through the heuristic classifier — DLT and template rejections
// in particular only show up as wording.
type MSG91 struct {
	authKey    string
	templateID string
	senderID   string
	tr         *Transport
}

func NewMSG91(authKey, templateID, senderID string, tr *Transport) *MSG91 {
	return &MSG91{authKey: authKey, templateID: templateID, senderID: senderID, tr: tr}
}

func (m *MSG91) Name() string { return "msg91" }

func (m *MSG91) Send(ctx context.Context, phone, code string, expiry time.Duration) SendResult {
	form := url.Values{}
	form.Set("authkey", m.authKey)
	form.Set("template_id", m.templateID)
	form.Set("mobile", "91"+phone)
	form.Set("otp", code)
	form.Set("otp_expiry", fmt.Sprintf("%d", int(expiry.Minutes())))
	if m.senderID != "" {
		form.Set("sender", m.senderID)
	}

	resp, err := m.tr.Request(ctx, http.MethodGet, msg91Endpoint, form, nil)
	if err != nil {
		return Classify(m.Name(), 0, "", err)
	}
	if Delivered(resp.StatusCode, resp.Body) {
		return SendResult{
			Sent:        true,
			InternalLog: fmt.Sprintf("msg91: status=%d body=%s", resp.StatusCode, truncate(resp.Body, 500)),
		}
	}
	return Classify(m.Name(), resp.StatusCode, resp.Body, nil)
}
