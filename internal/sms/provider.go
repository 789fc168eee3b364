package sms

import (
	"context"
	"strconv"
	"strings"
	"time"
)

// Provider sends one OTP message to a bare 10-digit number. Implementations
// must not panic on gateway garbage: every outcome, including transport
// failure, is reported through SendResult.
type Provider interface {
	Name() string
	Send(ctx context.Context, phone, code string, expiry time.Duration) SendResult
}

const defaultTemplate = "Your OTP is {otp}. It is valid for {minutes} minutes."

// RenderTemplate substitutes {otp} and {minutes} into a message template.
// Templates are pre-approved regulatory wording, so no other rewriting is done.
func RenderTemplate(tpl, code string, expiry time.Duration) string {
	if strings.TrimSpace(tpl) == "" {
		tpl = defaultTemplate
	}
	out := strings.ReplaceAll(tpl, "{otp}", code)
	return strings.ReplaceAll(out, "{minutes}", strconv.Itoa(int(expiry.Minutes())))
}
