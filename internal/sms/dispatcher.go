package sms

import (
	"context"
	"log/slog"
	"time"

	"github.com/selorg/ops-api/internal/config"
	"github.com/selorg/ops-api/internal/domain"
)

// Dispatcher tries providers strictly in order, at most once each, and
// short-circuits on the first success. Providers make real, billed network
// calls — a later provider must never run after an earlier one succeeded.
type Dispatcher struct {
	chain []Provider
}

func NewDispatcher(providers ...Provider) *Dispatcher {
	return &Dispatcher{chain: providers}
}

// Send walks the chain. On exhaustion the last structured failure is
// returned; with an empty chain the code is logged for local visibility and a
// generic not-configured failure comes back.
func (d *Dispatcher) Send(ctx context.Context, phone, code string, expiry time.Duration) SendResult {
	if len(d.chain) == 0 {
		slog.Info("no sms provider configured, otp not delivered", "phone", phone, "otp", code)
		return SendResult{
			ErrorCode:   domain.CodeSMSGatewayError,
			UserMessage: "SMS provider not configured",
			InternalLog: "dispatcher: empty provider chain",
		}
	}

	var last SendResult
	for _, p := range d.chain {
		res := p.Send(ctx, phone, code, expiry)
		if res.Sent {
			slog.Info("otp sms delivered", "provider", p.Name(), "phone", phone)
			return res
		}
		slog.Warn("sms provider failed, trying next",
			"provider", p.Name(), "phone", phone, "error_code", res.ErrorCode, "detail", res.InternalLog)
		last = res
	}
	return last
}

// NewFromConfig assembles the dispatcher. An explicitly selected primary
// provider is used exclusively; otherwise every configured provider joins the
// fixed fallback chain generic -> msg91 -> fast2sms -> twilio.
func NewFromConfig(cfg config.SMSConfig) *Dispatcher {
	tr := NewTransport(defaultTimeout)

	build := map[string]func() Provider{
		"generic": func() Provider {
			if cfg.GatewayURL == "" {
				return nil
			}
			return NewGeneric(GenericConfig{
				URL:          cfg.GatewayURL,
				APIKey:       cfg.GatewayKey,
				Method:       cfg.GatewayMethod,
				FieldNumber:  cfg.FieldNumber,
				FieldMessage: cfg.FieldMessage,
				CountryCode:  cfg.CountryCode,
				Template:     cfg.Template,
			}, tr)
		},
		"msg91": func() Provider {
			if cfg.MSG91AuthKey == "" {
				return nil
			}
			return NewMSG91(cfg.MSG91AuthKey, cfg.MSG91TemplateID, cfg.MSG91SenderID, tr)
		},
		"fast2sms": func() Provider {
			if cfg.Fast2SMSKey == "" {
				return nil
			}
			return NewFast2SMS(cfg.Fast2SMSKey, tr)
		},
		"twilio": func() Provider {
			if cfg.TwilioAccountSID == "" || cfg.TwilioAuthToken == "" {
				return nil
			}
			return NewTwilio(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioFrom, tr)
		},
		"sns": func() Provider {
			p, err := NewSNS(cfg.SNSRegion)
			if err != nil {
				slog.Warn("sns provider not available", "err", err)
				return nil
			}
			return p
		},
	}

	if cfg.Provider != "" {
		f, ok := build[cfg.Provider]
		if !ok {
			slog.Warn("unknown sms provider selected", "provider", cfg.Provider)
			return NewDispatcher()
		}
		if p := f(); p != nil {
			return NewDispatcher(p)
		}
		slog.Warn("selected sms provider is not configured", "provider", cfg.Provider)
		return NewDispatcher()
	}

	var chain []Provider
	for _, name := range []string{"generic", "msg91", "fast2sms", "twilio"} {
		if p := build[name](); p != nil {
			chain = append(chain, p)
		}
	}
	return NewDispatcher(chain...)
}
