package models

import "time"

// OtpSession binds a pending email verification code to the session id handed
// to the client. Only the bcrypt hash of the code is stored.
type OtpSession struct {
	ID        string    `json:"id" bson:"_id"`
	Email     string    `json:"email" bson:"email"`
	CodeHash  string    `json:"-" bson:"code_hash"`
	Attempts  int       `json:"attempts" bson:"attempts"`
	ExpiresAt time.Time `json:"expires_at" bson:"expires_at"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
}

func (o *OtpSession) Expired(now time.Time) bool {
	return !now.Before(o.ExpiresAt)
}
