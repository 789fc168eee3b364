package sms

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/selorg/ops-api/internal/config"
	"github.com/selorg/ops-api/internal/domain"
)

// fakeProvider records whether it was called and returns a canned result.
type fakeProvider struct {
	name   string
	result SendResult
	calls  int
}

func (f *fakeProvider) Name() string { return f.name }
func (f *fakeProvider) Send(context.Context, string, string, time.Duration) SendResult {
	f.calls++
	return f.result
}

func TestDispatcher_ShortCircuitsOnFirstSuccess(t *testing.T) {
	p1 := &fakeProvider{name: "p1", result: SendResult{ErrorCode: domain.CodeSMSAuthFailure}}
	p2 := &fakeProvider{name: "p2", result: SendResult{Sent: true}}
	p3 := &fakeProvider{name: "p3", result: SendResult{Sent: true}}

	d := NewDispatcher(p1, p2, p3)
	res := d.Send(context.Background(), "9876543210", "1234", 5*time.Minute)

	assert.True(t, res.Sent)
	assert.Equal(t, 1, p1.calls)
	assert.Equal(t, 1, p2.calls)
	assert.Zero(t, p3.calls, "providers after a success must never run")
}

func TestDispatcher_EachProviderTriedAtMostOnce(t *testing.T) {
	p1 := &fakeProvider{name: "p1", result: SendResult{ErrorCode: domain.CodeSMSTimeout}}
	p2 := &fakeProvider{name: "p2", result: SendResult{ErrorCode: domain.CodeSMSInsufficientBalance}}

	d := NewDispatcher(p1, p2)
	res := d.Send(context.Background(), "9876543210", "1234", 5*time.Minute)

	assert.False(t, res.Sent)
	assert.Equal(t, 1, p1.calls)
	assert.Equal(t, 1, p2.calls)
}

func TestDispatcher_ExhaustionReturnsLastFailure(t *testing.T) {
	p1 := &fakeProvider{name: "p1", result: SendResult{ErrorCode: domain.CodeSMSAuthFailure}}
	p2 := &fakeProvider{name: "p2", result: SendResult{ErrorCode: domain.CodeSMSDailyLimit, UserMessage: "SMS limit reached, please try again later"}}

	d := NewDispatcher(p1, p2)
	res := d.Send(context.Background(), "9876543210", "1234", 5*time.Minute)

	assert.False(t, res.Sent)
	assert.Equal(t, domain.CodeSMSDailyLimit, res.ErrorCode)
}

func TestDispatcher_EmptyChain(t *testing.T) {
	d := NewDispatcher()
	res := d.Send(context.Background(), "9876543210", "1234", 5*time.Minute)

	assert.False(t, res.Sent)
	assert.Equal(t, domain.CodeSMSGatewayError, res.ErrorCode)
	assert.Equal(t, "SMS provider not configured", res.UserMessage)
}

func TestNewFromConfig_ChainOrder(t *testing.T) {
	d := NewFromConfig(config.SMSConfig{
		GatewayURL:       "https://sms.example.com/send",
		MSG91AuthKey:     "k",
		Fast2SMSKey:      "k",
		TwilioAccountSID: "sid",
		TwilioAuthToken:  "tok",
	})

	var names []string
	for _, p := range d.chain {
		names = append(names, p.Name())
	}
	assert.Equal(t, []string{"generic", "msg91", "fast2sms", "twilio"}, names)
}

func TestNewFromConfig_SkipsUnconfigured(t *testing.T) {
	d := NewFromConfig(config.SMSConfig{MSG91AuthKey: "k"})

	var names []string
	for _, p := range d.chain {
		names = append(names, p.Name())
	}
	assert.Equal(t, []string{"msg91"}, names)
}

func TestNewFromConfig_ExclusivePrimary(t *testing.T) {
	d := NewFromConfig(config.SMSConfig{
		Provider:     "msg91",
		GatewayURL:   "https://sms.example.com/send",
		MSG91AuthKey: "k",
	})

	var names []string
	for _, p := range d.chain {
		names = append(names, p.Name())
	}
	assert.Equal(t, []string{"msg91"}, names, "an explicit primary runs alone, no fallback")
}

func TestNewFromConfig_UnknownPrimaryYieldsEmptyChain(t *testing.T) {
	d := NewFromConfig(config.SMSConfig{Provider: "carrier-pigeon"})
	assert.Empty(t, d.chain)
}
