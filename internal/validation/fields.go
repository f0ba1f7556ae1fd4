package validation

import "positiveonly/internal/models"

// Field names reported in VALIDATION_ERROR responses.
const (
	FieldUsername                = "USERNAME"
	FieldEmail                   = "EMAIL"
	FieldPassword                = "PASSWORD"
	FieldUsernameOrEmail         = "USERNAME_OR_EMAIL"
	FieldIP                      = "IP"
	FieldSessionManagementToken  = "SESSION_MANAGEMENT_TOKEN"
	FieldSeriesIdentifier        = "SERIES_IDENTIFIER"
	FieldLoginCookieToken        = "LOGIN_COOKIE_TOKEN"
	FieldResetID                 = "RESET_ID"
	FieldImageURL                = "IMAGE_URL"
	FieldCaption                 = "CAPTION"
	FieldPostIdentifier          = "POST_IDENTIFIER"
	FieldCommentThreadIdentifier = "COMMENT_THREAD_IDENTIFIER"
	FieldCommentIdentifier       = "COMMENT_IDENTIFIER"
	FieldCommentText             = "COMMENT_TEXT"
	FieldReason                  = "REASON"
	FieldUsernameFragment        = "USERNAME_FRAGMENT"
	FieldBatch                   = "BATCH"
	FieldDateOfBirth             = "DATE_OF_BIRTH"
)

// Fields accumulates invalid field names so a caller sees every bad input at
// once instead of only the first.
type Fields struct {
	invalid []string
}

// Check records name when value does not satisfy p.
func (f *Fields) Check(name, value string, p Pattern) *Fields {
	if !Matches(value, p) {
		f.Add(name)
	}
	return f
}

// CheckBatch records FieldBatch for a negative batch index.
func (f *Fields) CheckBatch(batch int) *Fields {
	if batch < 0 {
		f.Add(FieldBatch)
	}
	return f
}

// Add records name unconditionally. Duplicates are ignored.
func (f *Fields) Add(name string) {
	for _, existing := range f.invalid {
		if existing == name {
			return
		}
	}
	f.invalid = append(f.invalid, name)
}

// Invalid returns the recorded field names in check order.
func (f *Fields) Invalid() []string {
	return append([]string(nil), f.invalid...)
}

// Err returns a VALIDATION_ERROR listing every invalid field, or nil.
func (f *Fields) Err() error {
	if len(f.invalid) == 0 {
		return nil
	}
	return models.NewFieldsError(f.Invalid())
}
