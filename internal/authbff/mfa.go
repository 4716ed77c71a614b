package authbff

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

// MFA wraps TOTP secret generation and code validation, adapted from
// the teacher's MFAService.
type MFA struct {
	issuer string
}

func NewMFA(issuer string) *MFA {
	return &MFA{issuer: issuer}
}

// GenerateSecret issues a new TOTP secret for accountName, returning
// the key and a PNG QR code for enrollment.
func (m *MFA) GenerateSecret(accountName string) (secret string, qrPNG []byte, err error) {
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      m.issuer,
		AccountName: accountName,
	})
	if err != nil {
		return "", nil, fmt.Errorf("authbff: generate totp key: %w", err)
	}

	png, err := qrCodePNG(key)
	if err != nil {
		return "", nil, err
	}
	return key.Secret(), png, nil
}

// ValidateCode checks code against secret, allowing the library's
// default one-period clock skew tolerance.
func (m *MFA) ValidateCode(code, secret string) bool {
	return totp.Validate(code, secret)
}

// GenerateCode is a test/dev helper for producing a valid code for a
// known secret at the current moment.
func (m *MFA) GenerateCode(secret string) (string, error) {
	return totp.GenerateCode(secret, time.Now())
}

func qrCodePNG(key *otp.Key) ([]byte, error) {
	img, err := key.Image(200, 200)
	if err != nil {
		return nil, fmt.Errorf("authbff: render qr code: %w", err)
	}
	return encodePNG(img)
}

func encodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("authbff: encode qr png: %w", err)
	}
	return buf.Bytes(), nil
}
