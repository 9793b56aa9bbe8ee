package journal

import "fmt"

type (
	AccountNotFound struct {
		Credential string
		ID         int64
	}

	CredentialTaken struct {
		Credential string
	}

	PostNotFound struct {
		Slug string
	}

	SlugTaken struct {
		Slug string
	}
)

func (a AccountNotFound) Error() string {
	if a.Credential == "" {
		return fmt.Sprintf("account %v not found", a.ID)
	}
	return fmt.Sprintf("account %v not found", a.Credential)
}

func (c CredentialTaken) Error() string {
	return fmt.Sprintf("credential %v is already taken", c.Credential)
}

func (p PostNotFound) Error() string {
	return fmt.Sprintf("post %v not found", p.Slug)
}

func (s SlugTaken) Error() string {
	return fmt.Sprintf("slug %v is already in use", s.Slug)
}
