package domain

// OTPRecord is a one-time password issued against a phone number.
// PK: otp_id (ULID). GSI: phone-created_at-index (hash phone, range created_at)
// for most-recent-first lookups. ExpiresAt doubles as the DynamoDB TTL
// attribute, so expired records are evicted by the store itself.
//
// At most one unused record should be live per phone: issuing a new code
// deletes prior unused ones. The delete and the insert are not transactional,
// so a fast double-issue can briefly leave two live records; verification
// tolerates this by matching most recent first. Do not tighten this into a
// single-record invariant without checking callers.
type OTPRecord struct {
	OTPID     string `json:"id" dynamodbav:"otp_id"`
	Phone     string `json:"phone" dynamodbav:"phone"`
	Code      string `json:"code" dynamodbav:"code"`
	IsUsed    bool   `json:"is_used" dynamodbav:"is_used"`
	ExpiresAt int64  `json:"expires_at" dynamodbav:"expires_at"` // TTL (Unix seconds)
	CreatedAt string `json:"created_at" dynamodbav:"created_at"` // RFC3339, GSI range key
}
