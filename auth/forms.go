package auth

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"github.com/andrebq/blogbox/internal/forms"
	"golang.org/x/text/unicode/norm"
)

// Form fields
const (
	FieldCredential   = "username"
	FieldSecret       = "password"
	FieldNewSecret    = "password1"
	FieldConfirmation = "password2"
	FieldNext         = "next"

	MaxCredentialLength = 150
	MinSecretLength     = 8

	MsgCredentialTaken     = "A user with that username already exists."
	MsgSecretMismatch      = "The two password fields didn't match."
	MsgInvalidCredentials  = "Please enter a correct username and password. Note that both fields may be case-sensitive."
	msgCredentialCharset   = "Enter a valid username. This value may contain only letters, numbers, and @/./+/-/_ characters."
	msgCredentialMaxLength = "Ensure this value has at most 150 characters."
)

var (
	// RegistrationFields lists every field read from a registration submission
	RegistrationFields = []string{FieldCredential, FieldNewSecret, FieldConfirmation}
	// LoginFields lists every field read from a login submission
	LoginFields = []string{FieldCredential, FieldSecret, FieldNext}

	registrationRules = []forms.Rule{
		forms.Required(FieldCredential),
		forms.MaxLength(FieldCredential, MaxCredentialLength, msgCredentialMaxLength),
		{Field: FieldCredential, Message: msgCredentialCharset, Check: validCredentialCharset},
		forms.Required(FieldNewSecret),
		{
			Field:   FieldNewSecret,
			Message: fmt.Sprintf("This password is too short. It must contain at least %d characters.", MinSecretLength),
			Check: func(v forms.Values) bool {
				return len([]rune(v[FieldNewSecret])) >= MinSecretLength
			},
		},
		{Field: FieldNewSecret, Message: "The password is too similar to the username.", Check: notSimilarToCredential},
		{Field: FieldNewSecret, Message: "This password is too common.", Check: notCommon},
		{Field: FieldNewSecret, Message: "This password is entirely numeric.", Check: notNumeric},
		forms.Required(FieldConfirmation),
		forms.Equal(FieldConfirmation, FieldNewSecret, MsgSecretMismatch),
	}

	loginRules = []forms.Rule{
		forms.Required(FieldCredential),
		forms.Required(FieldSecret),
	}

	commonSecrets = map[string]struct{}{}
)

func init() {
	for _, s := range []string{
		"password", "password1", "password123", "12345678", "123456789", "1234567890",
		"qwertyuiop", "qwerty123", "iloveyou", "sunshine", "princess", "football",
		"baseball", "welcome1", "letmein1", "trustno1", "superman", "starwars",
		"passw0rd", "abc12345", "dragon123", "monkey123", "whatever", "computer",
		"michelle", "jennifer", "11111111", "00000000", "asdfghjkl", "zaq12wsx",
	} {
		commonSecrets[s] = struct{}{}
	}
}

// NormalizeCredential trims surrounding whitespace and applies NFKC, so
// visually identical credentials map to the same account.
func NormalizeCredential(c string) string {
	return norm.NFKC.String(strings.TrimSpace(c))
}

// ValidateRegistration checks a registration submission. The static rules
// run first, the uniqueness lookup only runs for an otherwise valid
// credential. Nothing is written.
func ValidateRegistration(ctx context.Context, v forms.Values, exists func(context.Context, string) (bool, error)) (forms.Result, error) {
	v = v.Without()
	v[FieldCredential] = NormalizeCredential(v[FieldCredential])
	res := forms.Validate(v, registrationRules)
	if res.Error(FieldCredential) != "" {
		return res, nil
	}
	taken, err := exists(ctx, v[FieldCredential])
	if err != nil {
		return res, err
	}
	if taken {
		res.Add(FieldCredential, MsgCredentialTaken)
	}
	return res, nil
}

// ValidateLogin only checks the shape of the submission, credential checks
// happen in Service.Authenticate.
func ValidateLogin(v forms.Values) forms.Result {
	v = v.Without()
	v[FieldCredential] = NormalizeCredential(v[FieldCredential])
	return forms.Validate(v, loginRules)
}

func validCredentialCharset(v forms.Values) bool {
	for _, r := range v[FieldCredential] {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r):
		case strings.ContainsRune("@.+-_", r):
		default:
			return false
		}
	}
	return true
}

func notSimilarToCredential(v forms.Values) bool {
	cred := strings.ToLower(v[FieldCredential])
	secret := strings.ToLower(v[FieldNewSecret])
	if len(cred) < 3 {
		return true
	}
	return !strings.Contains(secret, cred) && !strings.Contains(cred, secret)
}

func notCommon(v forms.Values) bool {
	_, found := commonSecrets[strings.ToLower(v[FieldNewSecret])]
	return !found
}

func notNumeric(v forms.Values) bool {
	for _, r := range v[FieldNewSecret] {
		if !unicode.IsDigit(r) {
			return true
		}
	}
	return false
}
