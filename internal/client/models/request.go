package models

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrEmptyDestination  = errors.New("destination must not be empty")
	ErrInvalidAuthMethod = errors.New("auth method must be phone or email")
)

type OTPRequest struct {
	PhoneNumber       *string    `json:"phoneNumber,omitempty"`
	Email             *string    `json:"email,omitempty"`
	PrimaryAuthMethod AuthMethod `json:"primaryAuthMethod"`
}

type OTPVerification struct {
	PhoneNumber *string `json:"phoneNumber,omitempty"`
	Email       *string `json:"email,omitempty"`
	Code        string  `json:"code"`
}

type UserRegistration struct {
	PhoneNumber       *string    `json:"phoneNumber,omitempty"`
	Email             *string    `json:"email,omitempty"`
	PrimaryAuthMethod AuthMethod `json:"primaryAuthMethod"`
}

type EmailVerification struct {
	Code string `json:"code"`
}

// Destination is where a one-time code is delivered: a phone number or an
// email address.
type Destination struct {
	Method AuthMethod
	Value  string
}

func Phone(number string) Destination { return Destination{Method: AuthMethodPhone, Value: number} }
func Email(addr string) Destination   { return Destination{Method: AuthMethodEmail, Value: addr} }

// Validate checks only that the destination is present and that the method
// is known. Number and address formats are the server's business.
func (d Destination) Validate() error {
	if !d.Method.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidAuthMethod, d.Method)
	}
	if strings.TrimSpace(d.Value) == "" {
		return ErrEmptyDestination
	}
	if d.Method == AuthMethodEmail && !strings.Contains(d.Value, "@") {
		return fmt.Errorf("%w: %q is not an email address", ErrInvalidAuthMethod, d.Value)
	}
	return nil
}

func (d Destination) String() string {
	return string(d.Method) + ":" + d.Value
}

func (d Destination) fields() (phone, email *string) {
	v := strings.TrimSpace(d.Value)
	if d.Method == AuthMethodEmail {
		return nil, &v
	}
	return &v, nil
}

func (d Destination) OTPRequest() OTPRequest {
	phone, email := d.fields()
	return OTPRequest{PhoneNumber: phone, Email: email, PrimaryAuthMethod: d.Method}
}

func (d Destination) OTPVerification(code string) OTPVerification {
	phone, email := d.fields()
	return OTPVerification{PhoneNumber: phone, Email: email, Code: code}
}

func (d Destination) Registration() UserRegistration {
	phone, email := d.fields()
	return UserRegistration{PhoneNumber: phone, Email: email, PrimaryAuthMethod: d.Method}
}
