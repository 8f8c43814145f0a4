package pagination

import (
	"encoding/base64"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEncodeDecodeToken(t *testing.T) {
	// Standard values
	paymentDate := time.Date(2023, 5, 15, 14, 30, 45, 123456789, time.UTC)
	paymentID := "2b0c6f7e-9a59-4a1b-8d7f-2f1b1f5d6f01"

	token := EncodeToken(paymentDate, paymentID)
	assert.NotEmpty(t, token, "Token should not be empty")

	decodedDate, decodedID, err := DecodeToken(token)
	assert.NoError(t, err, "Decoding should not return an error")
	assert.Equal(t, paymentDate, decodedDate, "Payment date should match after decode")
	assert.Equal(t, paymentID, decodedID, "Payment ID should match after decode")

	// Non-UTC input is normalized
	local := time.Date(2023, 5, 15, 10, 0, 0, 0, time.FixedZone("EST", -5*3600))
	decodedDate, _, err = DecodeToken(EncodeToken(local, "p-1"))
	assert.NoError(t, err)
	assert.True(t, local.Equal(decodedDate), "Instant should survive a zone change")
	assert.Equal(t, time.UTC, decodedDate.Location())
}

func TestDecodeTokenError(t *testing.T) {
	// Invalid base64
	_, _, err := DecodeToken("this is not base64!")
	assert.Error(t, err, "Should return an error for invalid base64")
	assert.Contains(t, err.Error(), "base64 decode", "Error should mention base64 decoding")

	// Missing separator
	noSeparator := base64.StdEncoding.EncodeToString([]byte("2023-05-15T00:00:00Z"))
	_, _, err = DecodeToken(noSeparator)
	assert.Error(t, err, "Should return an error for invalid token format")
	assert.Contains(t, err.Error(), "split", "Error should mention splitting issue")

	// Empty id
	_, _, err = DecodeToken(EncodeMultiFieldToken("2023-05-15T00:00:00Z", ""))
	assert.Error(t, err)

	// Invalid date format
	badDate := EncodeMultiFieldToken("notadate", "p-1")
	_, _, err = DecodeToken(badDate)
	assert.Error(t, err, "Should return an error for invalid date format")
	assert.Contains(t, err.Error(), "date parse", "Error should mention date parsing issue")
}

func TestMultiFieldToken(t *testing.T) {
	token := EncodeMultiFieldToken("a", "b", "c")
	parts, err := DecodeMultiFieldToken(token)
	assert.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, parts)
}
