package mail

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerificationEmail(t *testing.T) {
	msg, err := VerificationEmail("ada@example.com", VerificationData{
		FirstName: "Ada",
		LastName:  "<Lovelace>",
		Code:      "004217",
		ValidFor:  10 * time.Minute,
	})
	require.NoError(t, err)

	assert.Equal(t, "ada@example.com", msg.To)
	assert.Equal(t, "Ada <Lovelace>", msg.ToName)
	assert.Equal(t, VerificationSubject, msg.Subject)
	assert.Contains(t, msg.HTMLBody, "004217")
	assert.Contains(t, msg.HTMLBody, "10 minutes")
	assert.Contains(t, msg.HTMLBody, "&lt;Lovelace&gt;", "names are HTML-escaped")
}
