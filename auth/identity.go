package auth

import "github.com/andrebq/blogbox/journal"

type (
	// Identity classifies a request: anonymous when Account is nil,
	// authenticated otherwise.
	Identity struct {
		Account *journal.Account
		Token   string
	}
)

func Anonymous() Identity {
	return Identity{}
}

func Authenticated(acc journal.Account, token string) Identity {
	return Identity{Account: &acc, Token: token}
}

func (i Identity) Authenticated() bool {
	return i.Account != nil
}

func (i Identity) Credential() string {
	if i.Account == nil {
		return ""
	}
	return i.Account.Credential
}
