package validation

import (
	"errors"
	"strings"
	"testing"

	"positiveonly/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatches(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		value   string
		pattern Pattern
		want    bool
	}{
		{"Username Valid", "positive_user1", Alphanumeric, true},
		{"Username Too Short", "short", Alphanumeric, false},
		{"Username Max Length", strings.Repeat("a", 500), Alphanumeric, true},
		{"Username Too Long", strings.Repeat("a", 501), Alphanumeric, false},
		{"Username Illegal Chars", "user-name-with-dash", Alphanumeric, false},
		{"Username Invalid UTF8", "abcdefghij\xff", Alphanumeric, false},
		{"Fragment Valid", "pos", ShortAlphanumeric, true},
		{"Fragment Too Short", "po", ShortAlphanumeric, false},
		{"Password Valid", "SecurePass1@", Password, true},
		{"Email Valid", "someone@example.com", Email, true},
		{"Email No At", "someone.example.com", Email, false},
		{"Email Two At", "some@one@example.com", Email, false},
		{"Email No Dot", "someone@example", Email, false},
		{"UUID4 Valid", "1b4e28ba2fa141d29a9e7d1c0c2cbf1a", UUID4, true},
		{"UUID4 With Dashes", "1b4e28ba-2fa1-41d2-9a9e-7d1c0c2cbf1a", UUID4, false},
		{"UUID4 Wrong Version", "1b4e28ba2fa111d29a9e7d1c0c2cbf1a", UUID4, false},
		{"UUID4 Wrong Variant", "1b4e28ba2fa141d2ca9e7d1c0c2cbf1a", UUID4, false},
		{"UUID4 Upper Case", "1B4E28BA2FA141D29A9E7D1C0C2CBF1A", UUID4, false},
		{"IPv4 Valid", "192.168.0.1", IPv4, true},
		{"IPv4 Octet Overflow", "256.1.1.1", IPv4, false},
		{"IPv4 Too Few Octets", "10.0.1", IPv4, false},
		{"IPv6 Full", "2001:0db8:85a3:0000:0000:8a2e:0370:7334", IPv6, true},
		{"IPv6 Compressed", "2001:db8::1", IPv6, true},
		{"IPv6 Loopback", "::1", IPv6, true},
		{"IPv6 Link Local Zone", "fe80::1%eth0", IPv6, true},
		{"IPv6 Mapped IPv4", "::ffff:192.168.0.1", IPv6, true},
		{"IPv6 Garbage", "2001:db8:::1:zz", IPv6, false},
		{"IP Accepts IPv4", "127.0.0.1", IP, true},
		{"IP Accepts IPv6", "::1", IP, true},
		{"IP Rejects Hostname", "localhost", IP, false},
		{"Identity Username", "positive_user1", UsernameOrEmail, true},
		{"Identity Email", "someone@example.com", UsernameOrEmail, true},
		{"Identity Neither", "bad", UsernameOrEmail, false},
		{"Free Text", "What a lovely day!\nTruly.", FreeText, true},
		{"Free Text Empty", "", FreeText, false},
		{"Reset Code Valid", "012345", ResetCode, true},
		{"Reset Code Short", "12345", ResetCode, false},
		{"Reset Code Letters", "12a456", ResetCode, false},
		{"Image URL Jpg", "https://cdn.example.com/a/cat.jpg", ImageURL, true},
		{"Image URL Upper Case", "https://cdn.example.com/a/cat.PNG", ImageURL, true},
		{"Image URL Jpeg", "https://cdn.example.com/a/cat.jpeg", ImageURL, true},
		{"Image URL Gif", "https://cdn.example.com/a/cat.gif", ImageURL, true},
		{"Image URL Other", "https://cdn.example.com/a/cat.webp", ImageURL, false},
		{"Date Valid", "2000-01-01", Date, true},
		{"Date Leap Day", "2024-02-29", Date, true},
		{"Date Not Leap Year", "2023-02-29", Date, false},
		{"Date Month Overflow", "2000-13-01", Date, false},
		{"Date Garbage", "invalid-date", Date, false},
		{"Date Empty", "", Date, false},
		{"Date With Time", "2000-01-01T00:00:00Z", Date, false},
		{"Unknown Pattern", "anything", Pattern(99), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Matches(tt.value, tt.pattern))
		})
	}
}

func TestMatchesPassword(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		password string
		want     bool
	}{
		{"Valid", "SecurePass12@", true},
		{"Exactly Min Length", "Abcdef1#", true},
		{"Too Short", "Abcde1#", false},
		{"No Upper", "securepass12@", false},
		{"No Lower", "SECUREPASS12@", false},
		{"No Digit", "SecurePass@@", false},
		{"No Special", "SecurePass123", false},
		{"Unlisted Special", "SecurePass12!", false},
		{"Underscore Special", "Secure_Pass12", true},
		{"Whitespace", "Secure Pass12@", false},
		{"Tab", "Secure\tPass12@", false},
		{"Unicode Letters Allowed", "ÅngstromPass12=", true},
		{"Invalid UTF8", "SecurePass12@\xff", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Matches(tt.password, Password))
		})
	}
}

func TestPatternString(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "username_or_email", UsernameOrEmail.String())
	assert.Equal(t, "unknown", Pattern(-1).String())
}

func TestFieldsReportsEveryInvalidField(t *testing.T) {
	t.Parallel()

	var f Fields
	f.Check(FieldUsername, "bad", Alphanumeric).
		Check(FieldEmail, "someone@example.com", Email).
		Check(FieldPassword, "weak", Password).
		CheckBatch(-1)

	err := f.Err()
	require.Error(t, err)

	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, models.CodeValidation, appErr.Code)
	assert.Equal(t, []string{FieldUsername, FieldPassword, FieldBatch}, appErr.Fields)
	assert.Equal(t, "Invalid fields: [USERNAME, PASSWORD, BATCH]", appErr.Message)
}

func TestFieldsNoErrorWhenAllValid(t *testing.T) {
	t.Parallel()

	var f Fields
	f.Check(FieldUsername, "positive_user1", Alphanumeric).CheckBatch(0)
	assert.NoError(t, f.Err())
	assert.Empty(t, f.Invalid())
}

func TestFieldsAddIgnoresDuplicates(t *testing.T) {
	t.Parallel()

	var f Fields
	f.Add(FieldIP)
	f.Add(FieldIP)
	assert.Equal(t, []string{FieldIP}, f.Invalid())
}
