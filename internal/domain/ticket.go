package domain

import "time"

// Ticket is the persisted form of a bearer credential. Only the SHA-256 hash of
// the secret is ever stored; the plaintext exists between generation and the
// login response and nowhere else.
type Ticket struct {
	SecretHash string    `dynamodbav:"secret_hash"`
	IssuedAt   time.Time `dynamodbav:"issued_at"`
	ExpiresAt  time.Time `dynamodbav:"expires_at"`
	// TTL mirrors ExpiresAt as epoch seconds so DynamoDB's native TTL can reap
	// lapsed rows. Expiry enforcement at check time does not depend on it.
	TTL int64 `dynamodbav:"ttl"`
}

// IssuedTicket is the transient result of issuing a ticket. Secret is the
// hex-encoded plaintext handed to the caller exactly once.
type IssuedTicket struct {
	Secret    string    `json:"ticket"`
	IssuedAt  time.Time `json:"issued"`
	ExpiresAt time.Time `json:"expires"`
}
