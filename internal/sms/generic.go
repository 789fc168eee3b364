package sms

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/selorg/ops-api/internal/domain"
)

// Field-name aliases left over from older deployments, normalized to the
// names the current gateways actually expect.
var (
	numberFieldAliases  = map[string]string{"mobile": "mobiles", "phone": "mobiles", "number": "mobiles", "msisdn": "mobiles"}
	messageFieldAliases = map[string]string{"msg": "message", "text": "message", "sms": "message"}
)

// GenericConfig configures the generically-driven HTTP vendor.
type GenericConfig struct {
	URL          string
	APIKey       string
	Method       string // "GET" or "POST"
	FieldNumber  string
	FieldMessage string
	CountryCode  string // prepended to the number when set
	Template     string
}

// Generic is the configurable HTTP vendor. Its response contract is unknown,
// so the heuristic classifier decides the outcome.
type Generic struct {
	cfg GenericConfig
	tr  *Transport
}

func NewGeneric(cfg GenericConfig, tr *Transport) *Generic {
	if alias, ok := numberFieldAliases[cfg.FieldNumber]; ok {
		cfg.FieldNumber = alias
	}
	if cfg.FieldNumber == "" {
		cfg.FieldNumber = "mobiles"
	}
	if alias, ok := messageFieldAliases[cfg.FieldMessage]; ok {
		cfg.FieldMessage = alias
	}
	if cfg.FieldMessage == "" {
		cfg.FieldMessage = "message"
	}
	if cfg.Method != http.MethodPost {
		cfg.Method = http.MethodGet
	}
	return &Generic{cfg: cfg, tr: tr}
}

func (g *Generic) Name() string { return "generic" }

func (g *Generic) Send(ctx context.Context, phone, code string, expiry time.Duration) SendResult {
	message := RenderTemplate(g.cfg.Template, code, expiry)
	number := phone
	if g.cfg.CountryCode != "" {
		number = g.cfg.CountryCode + phone
	}
	res := g.attempt(ctx, number, message)
	// Single-shot contract repair: if the gateway claims the number parameter
	// was missing and we had prepended a country code, retry once with the
	// bare 10-digit number. Not a general retry loop.
	if !res.Sent && res.ErrorCode == domain.CodeSMSGatewayContract && number != phone {
		res = g.attempt(ctx, phone, message)
	}
	return res
}

func (g *Generic) attempt(ctx context.Context, number, message string) SendResult {
	form := url.Values{}
	if g.cfg.APIKey != "" {
		form.Set("apikey", g.cfg.APIKey)
	}
	form.Set(g.cfg.FieldNumber, number)
	form.Set(g.cfg.FieldMessage, message)

	resp, err := g.tr.Request(ctx, g.cfg.Method, g.cfg.URL, form, nil)
	if err != nil {
		return Classify(g.Name(), 0, "", err)
	}
	if Delivered(resp.StatusCode, resp.Body) {
		return SendResult{
			Sent:        true,
			InternalLog: fmt.Sprintf("generic: status=%d body=%s", resp.StatusCode, truncate(resp.Body, 500)),
		}
	}
	return Classify(g.Name(), resp.StatusCode, resp.Body, nil)
}
