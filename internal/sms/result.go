package sms

// SendResult is the structured outcome of one delivery attempt. It is
// transient: produced by a provider (usually via the classifier), consumed by
// the dispatcher and the auth orchestrator, never persisted.
//
// UserMessage is safe to return to clients. InternalLog carries the raw
// gateway status/body for operator diagnostics and must never leave the
// process except through logs.
type SendResult struct {
	Sent        bool
	ErrorCode   string
	UserMessage string
	InternalLog string
}
