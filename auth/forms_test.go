package auth

import (
	"context"
	"errors"
	"testing"

	"github.com/andrebq/blogbox/internal/forms"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noneTaken(context.Context, string) (bool, error) { return false, nil }

func TestValidateRegistration(t *testing.T) {
	ctx := background()
	for _, tc := range []struct {
		name   string
		values forms.Values
		errors map[string]string
	}{
		{
			name:   "valid",
			values: forms.Values{"username": "alice", "password1": "CorrectHorse123", "password2": "CorrectHorse123"},
			errors: map[string]string{},
		},
		{
			name:   "missing everything",
			values: forms.Values{},
			errors: map[string]string{
				"username":  "This field is required.",
				"password1": "This field is required.",
				"password2": "This field is required.",
			},
		},
		{
			name:   "mismatch",
			values: forms.Values{"username": "alice", "password1": "CorrectHorse123", "password2": "CorrectHorse124"},
			errors: map[string]string{"password2": MsgSecretMismatch},
		},
		{
			name:   "short",
			values: forms.Values{"username": "alice", "password1": "Ab1", "password2": "Ab1"},
			errors: map[string]string{"password1": "This password is too short. It must contain at least 8 characters."},
		},
		{
			name:   "numeric",
			values: forms.Values{"username": "alice", "password1": "982734651", "password2": "982734651"},
			errors: map[string]string{"password1": "This password is entirely numeric."},
		},
		{
			name:   "common",
			values: forms.Values{"username": "alice", "password1": "Password123", "password2": "Password123"},
			errors: map[string]string{"password1": "This password is too common."},
		},
		{
			name:   "similar",
			values: forms.Values{"username": "alice", "password1": "alice-rocks", "password2": "alice-rocks"},
			errors: map[string]string{"password1": "The password is too similar to the username."},
		},
		{
			name:   "charset",
			values: forms.Values{"username": "al ice", "password1": "CorrectHorse123", "password2": "CorrectHorse123"},
			errors: map[string]string{"username": msgCredentialCharset},
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			res, err := ValidateRegistration(ctx, tc.values, noneTaken)
			require.NoError(t, err)
			assert.Equal(t, tc.errors, res.Errors)
		})
	}
}

func TestValidateRegistrationUniqueness(t *testing.T) {
	ctx := background()
	var asked []string
	exists := func(_ context.Context, c string) (bool, error) {
		asked = append(asked, c)
		return c == "alice", nil
	}
	res, err := ValidateRegistration(ctx, forms.Values{"username": " alice ", "password1": "CorrectHorse123", "password2": "CorrectHorse123"}, exists)
	require.NoError(t, err)
	assert.Equal(t, MsgCredentialTaken, res.Error(FieldCredential))
	assert.Equal(t, []string{"alice"}, asked, "lookup must use the normalised credential")

	asked = nil
	_, err = ValidateRegistration(ctx, forms.Values{"username": "", "password1": "x"}, exists)
	require.NoError(t, err)
	assert.Empty(t, asked, "invalid credentials never reach the store")

	boom := errors.New("boom")
	_, err = ValidateRegistration(ctx, forms.Values{"username": "bob"}, func(context.Context, string) (bool, error) {
		return false, boom
	})
	assert.ErrorIs(t, err, boom)
}

func TestNormalizeCredential(t *testing.T) {
	// fullwidth latin letters fold to ascii under NFKC
	assert.Equal(t, "alice", NormalizeCredential(" ａｌｉｃｅ "))
	assert.Equal(t, "Alice", NormalizeCredential("Alice"))
}

func TestValidateLogin(t *testing.T) {
	res := ValidateLogin(forms.Values{"username": "alice", "password": "x"})
	assert.True(t, res.Valid())
	res = ValidateLogin(forms.Values{"username": "  ", "password": ""})
	assert.Equal(t, map[string]string{
		"username": "This field is required.",
		"password": "This field is required.",
	}, res.Errors)
}
