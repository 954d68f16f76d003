package services

import (
	"context"
	"errors"
	"net/mail"
	"time"

	"github.com/JayJosh846/wishy/database"
	"github.com/JayJosh846/wishy/models"
	helper "github.com/JayJosh846/wishy/utils"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	OtpTTL         = 10 * time.Minute
	otpMaxAttempts = 5
	otpCodeLength  = 6
)

type OtpService interface {
	// Send returns the verification session and whether the code email went out.
	Send(ctx context.Context, email string) (*models.OtpSession, bool, error)
	Verify(ctx context.Context, sessionID, email, code string) error
}

type OtpServiceImpl struct {
	otps   database.OtpStore
	mailer Mailer
	appURL string
	log    *logrus.Logger
	now    func() time.Time
}

func OtpConstructor(otps database.OtpStore, mailer Mailer, appURL string, log *logrus.Logger) *OtpServiceImpl {
	return &OtpServiceImpl{
		otps:   otps,
		mailer: mailer,
		appURL: appURL,
		log:    log,
		now:    time.Now,
	}
}

// WithClock replaces the time source.
func (o *OtpServiceImpl) WithClock(now func() time.Time) *OtpServiceImpl {
	o.now = now
	return o
}

func (o *OtpServiceImpl) Send(ctx context.Context, email string) (*models.OtpSession, bool, error) {
	email = helper.NormalizeEmail(email)
	if email == "" {
		return nil, false, missingFields("email")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, false, invalidInput("invalid email address")
	}

	code, err := helper.GenerateVerificationCode()
	if err != nil {
		return nil, false, err
	}
	codeHash, err := helper.HashPassword(code)
	if err != nil {
		return nil, false, err
	}

	now := o.now().UTC()
	session := &models.OtpSession{
		ID:        uuid.NewString(),
		Email:     email,
		CodeHash:  codeHash,
		ExpiresAt: now.Add(OtpTTL),
		CreatedAt: now,
	}
	if err := o.otps.Create(ctx, session); err != nil {
		return nil, false, err
	}

	msg := verificationEmail(code, o.appURL)
	msg.To = email
	sent := true
	if err := o.mailer.Send(ctx, msg); err != nil {
		sent = false
		o.log.WithError(err).WithField("session", session.ID).Error("Sending verification email failed")
	}
	return session, sent, nil
}

func (o *OtpServiceImpl) Verify(ctx context.Context, sessionID, email, code string) error {
	email = helper.NormalizeEmail(email)
	if email == "" || code == "" {
		return missingFields("email", "otp")
	}
	if len(code) != otpCodeLength {
		return invalidInput("otp must be %d characters", otpCodeLength)
	}
	if sessionID == "" {
		return ErrInvalidCode
	}

	session, err := o.otps.Get(ctx, sessionID)
	if errors.Is(err, database.ErrNotFound) {
		return ErrInvalidCode
	}
	if err != nil {
		return err
	}

	if session.Expired(o.now()) || session.Attempts >= otpMaxAttempts {
		if err := o.otps.Delete(ctx, sessionID); err != nil {
			o.log.WithError(err).Warn("Deleting stale verification session failed")
		}
		return ErrInvalidCode
	}
	if session.Email != email || !helper.VerifyPassword(code, session.CodeHash) {
		if err := o.otps.IncrementAttempts(ctx, sessionID); err != nil && !errors.Is(err, database.ErrNotFound) {
			return err
		}
		return ErrInvalidCode
	}

	return o.otps.Delete(ctx, sessionID)
}
