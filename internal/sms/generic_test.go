package sms

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/selorg/ops-api/internal/domain"
)

func TestNewGeneric_NormalizesFieldAliases(t *testing.T) {
	g := NewGeneric(GenericConfig{FieldNumber: "mobile", FieldMessage: "msg"}, NewTransport(time.Second))
	assert.Equal(t, "mobiles", g.cfg.FieldNumber)
	assert.Equal(t, "message", g.cfg.FieldMessage)

	g = NewGeneric(GenericConfig{}, NewTransport(time.Second))
	assert.Equal(t, "mobiles", g.cfg.FieldNumber)
	assert.Equal(t, "message", g.cfg.FieldMessage)
	assert.Equal(t, http.MethodGet, g.cfg.Method)
}

func TestGeneric_SendsWithCountryCode(t *testing.T) {
	var gotNumber, gotKey, gotMessage string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		gotNumber = q.Get("mobiles")
		gotKey = q.Get("apikey")
		gotMessage = q.Get("message")
		w.Write([]byte("SMS submitted"))
	}))
	defer srv.Close()

	g := NewGeneric(GenericConfig{
		URL:         srv.URL,
		APIKey:      "k1",
		CountryCode: "91",
		Template:    "Code {otp} valid {minutes} min",
	}, NewTransport(time.Second))

	res := g.Send(context.Background(), "9876543210", "1234", 5*time.Minute)
	assert.True(t, res.Sent)
	assert.Equal(t, "919876543210", gotNumber)
	assert.Equal(t, "k1", gotKey)
	assert.Equal(t, "Code 1234 valid 5 min", gotMessage)
}

func TestGeneric_ContractRepairRetriesWithBareNumber(t *testing.T) {
	var numbers []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := r.URL.Query().Get("mobiles")
		numbers = append(numbers, n)
		if len(n) > 10 {
			w.Write([]byte("missing mobiles parameter"))
			return
		}
		w.Write([]byte(`{"status":"success"}`))
	}))
	defer srv.Close()

	g := NewGeneric(GenericConfig{URL: srv.URL, CountryCode: "91"}, NewTransport(time.Second))
	res := g.Send(context.Background(), "9876543210", "1234", 5*time.Minute)

	assert.True(t, res.Sent)
	assert.Equal(t, []string{"919876543210", "9876543210"}, numbers)
}

func TestGeneric_NoRetryWithoutCountryCode(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Write([]byte("missing mobiles parameter"))
	}))
	defer srv.Close()

	g := NewGeneric(GenericConfig{URL: srv.URL}, NewTransport(time.Second))
	res := g.Send(context.Background(), "9876543210", "1234", 5*time.Minute)

	assert.False(t, res.Sent)
	assert.Equal(t, domain.CodeSMSGatewayContract, res.ErrorCode)
	assert.Equal(t, 1, calls, "contract repair must be single shot")
}

func TestGeneric_NoRetryOnOtherFailures(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Write([]byte("Insufficient balance, please recharge"))
	}))
	defer srv.Close()

	g := NewGeneric(GenericConfig{URL: srv.URL, CountryCode: "91"}, NewTransport(time.Second))
	res := g.Send(context.Background(), "9876543210", "1234", 5*time.Minute)

	assert.False(t, res.Sent)
	assert.Equal(t, domain.CodeSMSInsufficientBalance, res.ErrorCode)
	assert.Equal(t, 1, calls)
}

func TestGeneric_PostMethod(t *testing.T) {
	var gotMethod string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
	}))
	defer srv.Close()

	g := NewGeneric(GenericConfig{URL: srv.URL, Method: http.MethodPost}, NewTransport(time.Second))
	res := g.Send(context.Background(), "9876543210", "1234", 5*time.Minute)
	assert.True(t, res.Sent)
	assert.Equal(t, http.MethodPost, gotMethod)
}

func TestRenderTemplate(t *testing.T) {
	assert.Equal(t, "OTP 1234, 5 min", RenderTemplate("OTP {otp}, {minutes} min", "1234", 5*time.Minute))
	// empty template falls back to the default wording
	out := RenderTemplate("", "1234", 10*time.Minute)
	assert.Contains(t, out, "1234")
	assert.Contains(t, out, "10")
}
