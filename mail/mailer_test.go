package mail

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSendGridMailerRequiresKey(t *testing.T) {
	_, err := NewSendGridMailer("")
	assert.ErrorIs(t, err, ErrAPIKeyRequired)
}

func TestNewSendGridMailerDefaults(t *testing.T) {
	mailer, err := NewSendGridMailer("SG.test-key")
	require.NoError(t, err)

	impl, ok := mailer.(*SendGridMailer)
	require.True(t, ok)
	assert.Equal(t, defaultFromName, impl.fromName)
	assert.Equal(t, defaultFromAddress, impl.fromAddress)
}

func TestWithFrom(t *testing.T) {
	mailer, err := NewSendGridMailer("SG.test-key", WithFrom("Acme", "hello@acme.example.com"))
	require.NoError(t, err)

	impl := mailer.(*SendGridMailer)
	assert.Equal(t, "Acme", impl.fromName)
	assert.Equal(t, "hello@acme.example.com", impl.fromAddress)
}
