package authbff_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ldp-wms/tenant-core/internal/authbff"
)

func TestMFA_GenerateAndValidateCode(t *testing.T) {
	mfa := authbff.NewMFA("tenant-core")

	secret, qr, err := mfa.GenerateSecret("alice@acme.test")
	require.NoError(t, err)
	assert.NotEmpty(t, secret)
	assert.NotEmpty(t, qr)

	code, err := mfa.GenerateCode(secret)
	require.NoError(t, err)
	assert.True(t, mfa.ValidateCode(code, secret))
}

func TestMFA_ValidateCode_RejectsWrongCode(t *testing.T) {
	mfa := authbff.NewMFA("tenant-core")
	secret, _, err := mfa.GenerateSecret("bob@acme.test")
	require.NoError(t, err)

	assert.False(t, mfa.ValidateCode("000000", secret))
}
