// Package validation provides input validation utilities
package validation

import (
	"regexp"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

// Pattern names one input contract.
type Pattern int

const (
	// Alphanumeric is 10 to 500 word characters: usernames and bearer tokens.
	Alphanumeric Pattern = iota
	// ShortAlphanumeric is 3 to 500 word characters: username fragments.
	ShortAlphanumeric
	// Password requires 8+ non-space characters with a digit, a lower and an
	// upper case letter and one of @#$%^&+=_.
	Password
	Email
	// UUID4 is a version 4 UUID in 32 character lowercase hex without dashes.
	UUID4
	IPv4
	IPv6
	// IP accepts IPv4 or IPv6.
	IP
	// UsernameOrEmail accepts Alphanumeric or Email.
	UsernameOrEmail
	// FreeText is any non-empty text.
	FreeText
	// ResetCode is exactly six digits.
	ResetCode
	// ImageURL must end in a jpg, jpeg, png or gif extension.
	ImageURL
	// Date is a calendar date in YYYY-MM-DD form.
	Date
)

var patternNames = map[Pattern]string{
	Alphanumeric:      "alphanumeric",
	ShortAlphanumeric: "short_alphanumeric",
	Password:          "password",
	Email:             "email",
	UUID4:             "uuid4",
	IPv4:              "ipv4",
	IPv6:              "ipv6",
	IP:                "ip",
	UsernameOrEmail:   "username_or_email",
	FreeText:          "free_text",
	ResetCode:         "reset_code",
	ImageURL:          "image_url",
	Date:              "date",
}

func (p Pattern) String() string {
	if name, ok := patternNames[p]; ok {
		return name
	}
	return "unknown"
}

const passwordSpecials = "@#$%^&+=_"

const ipv6Expr = `^(?:` +
	`([0-9a-fA-F]{1,4}:){7}[0-9a-fA-F]{1,4}|` +
	`([0-9a-fA-F]{1,4}:){1,7}:|` +
	`([0-9a-fA-F]{1,4}:){1,6}:[0-9a-fA-F]{1,4}|` +
	`([0-9a-fA-F]{1,4}:){1,5}(:[0-9a-fA-F]{1,4}){1,2}|` +
	`([0-9a-fA-F]{1,4}:){1,4}(:[0-9a-fA-F]{1,4}){1,3}|` +
	`([0-9a-fA-F]{1,4}:){1,3}(:[0-9a-fA-F]{1,4}){1,4}|` +
	`([0-9a-fA-F]{1,4}:){1,2}(:[0-9a-fA-F]{1,4}){1,5}|` +
	`[0-9a-fA-F]{1,4}:((:[0-9a-fA-F]{1,4}){1,6})|` +
	`:((:[0-9a-fA-F]{1,4}){1,7}|:)|` +
	`fe80:(:[0-9a-fA-F]{0,4}){0,4}%[0-9a-zA-Z]+|` +
	`::(ffff(:0{1,4})?:)?((25[0-5]|(2[0-4]|1?[0-9])?[0-9])\.){3}(25[0-5]|(2[0-4]|1?[0-9])?[0-9])|` +
	`([0-9a-fA-F]{1,4}:){1,4}:((25[0-5]|(2[0-4]|1?[0-9])?[0-9])\.){3}(25[0-5]|(2[0-4]|1?[0-9])?[0-9])` +
	`)$`

var (
	alphanumericRegex      = regexp.MustCompile(`^\w{10,500}$`)
	shortAlphanumericRegex = regexp.MustCompile(`^\w{3,500}$`)
	emailRegex             = regexp.MustCompile(`^[^@]+@[^@]+\.[^@]+$`)
	uuid4Regex             = regexp.MustCompile(`^[0-9a-f]{12}4[0-9a-f]{3}[89ab][0-9a-f]{15}$`)
	ipv4Regex              = regexp.MustCompile(`^((25[0-5]|(2[0-4]|1\d|[1-9]|)\d)\.?\b){4}$`)
	ipv6Regex              = regexp.MustCompile(ipv6Expr)
	resetCodeRegex         = regexp.MustCompile(`^\d{6}$`)
	imageURLRegex          = regexp.MustCompile(`(?i)\.(jpg|jpeg|png|gif)$`)
	dateRegex              = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
)

// DateLayout is the layout of Date values.
const DateLayout = "2006-01-02"

// Matches reports whether value satisfies p. It never panics; anything
// malformed, including invalid UTF-8, simply does not match.
func Matches(value string, p Pattern) bool {
	switch p {
	case Alphanumeric:
		return alphanumericRegex.MatchString(value)
	case ShortAlphanumeric:
		return shortAlphanumericRegex.MatchString(value)
	case Password:
		return isStrongPassword(value)
	case Email:
		return emailRegex.MatchString(value)
	case UUID4:
		return uuid4Regex.MatchString(value)
	case IPv4:
		return ipv4Regex.MatchString(value)
	case IPv6:
		return ipv6Regex.MatchString(value)
	case IP:
		return ipv4Regex.MatchString(value) || ipv6Regex.MatchString(value)
	case UsernameOrEmail:
		return alphanumericRegex.MatchString(value) || emailRegex.MatchString(value)
	case FreeText:
		return value != "" && utf8.ValidString(value)
	case ResetCode:
		return resetCodeRegex.MatchString(value)
	case ImageURL:
		return imageURLRegex.MatchString(value)
	case Date:
		if !dateRegex.MatchString(value) {
			return false
		}
		_, err := time.Parse(DateLayout, value)
		return err == nil
	default:
		return false
	}
}

// isStrongPassword is the procedural form of the password contract; RE2 has
// no lookahead.
func isStrongPassword(password string) bool {
	if !utf8.ValidString(password) || utf8.RuneCountInString(password) < 8 {
		return false
	}

	var hasDigit, hasLower, hasUpper, hasSpecial bool
	for _, r := range password {
		switch {
		case unicode.IsSpace(r):
			return false
		case r >= '0' && r <= '9':
			hasDigit = true
		case r >= 'a' && r <= 'z':
			hasLower = true
		case r >= 'A' && r <= 'Z':
			hasUpper = true
		case strings.ContainsRune(passwordSpecials, r):
			hasSpecial = true
		}
	}
	return hasDigit && hasLower && hasUpper && hasSpecial
}
