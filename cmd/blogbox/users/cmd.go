package users

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/andrebq/blogbox/auth"
	"github.com/andrebq/blogbox/internal/cmdflags"
	"github.com/andrebq/blogbox/internal/forms"
	"github.com/andrebq/blogbox/internal/logutil"
	"github.com/andrebq/blogbox/journal"
	"github.com/urfave/cli/v2"
)

func Cmd() *cli.Command {
	var dbFile string
	var pepperEnvVar string
	var j *journal.Journal
	var keyfn auth.KeyFn
	return &cli.Command{
		Name:  "users",
		Usage: "Manage blog accounts",
		Flags: []cli.Flag{
			cmdflags.Database(&dbFile),
			cmdflags.PepperEnvVar(&pepperEnvVar),
		},
		Before: func(ctx *cli.Context) error {
			var err error
			keyfn, err = auth.KeyFNFromEnv(pepperEnvVar, os.Getenv, os.Setenv)
			if err != nil {
				return err
			}
			j, err = journal.Open(ctx.Context, dbFile)
			return err
		},
		After: func(ctx *cli.Context) error {
			if j == nil {
				return nil
			}
			return j.Close()
		},
		Subcommands: []*cli.Command{
			registerCmd(&j, &keyfn),
		},
	}
}

func registerCmd(j **journal.Journal, keyfn *auth.KeyFn) *cli.Command {
	var username string
	return &cli.Command{
		Name:  "register",
		Usage: "Register a new account (password is read from stdin)",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "username",
				Aliases:     []string{"u", "user"},
				Usage:       "Name of the account to register",
				Destination: &username,
				Required:    true,
			},
		},
		Action: func(ctx *cli.Context) error {
			sc := bufio.NewScanner(os.Stdin)
			if !sc.Scan() {
				if sc.Err() != nil {
					return sc.Err()
				}
				return errors.New("missing password from stdin")
			}
			password := strings.TrimSpace(sc.Text())
			if len(password) == 0 {
				return errors.New("missing password from stdin")
			}
			// sessions are not used when registering from the command line
			svc := auth.NewService(*j, (*j).Sessions(), auth.NewHasher(*keyfn), 0)
			res, err := svc.ValidateRegistration(ctx.Context, forms.Values{
				auth.FieldCredential:   username,
				auth.FieldNewSecret:    password,
				auth.FieldConfirmation: password,
			})
			if err != nil {
				return err
			}
			if !res.Valid() {
				return invalidForm(res)
			}
			acc, err := svc.Register(ctx.Context, res.Values[auth.FieldCredential], password)
			if err != nil {
				return err
			}
			log := logutil.GetOrDefault(ctx.Context)
			log.Info().Str("credential", acc.Credential).Int64("account", acc.ID).Msg("Account registered")
			return nil
		},
	}
}

func invalidForm(res forms.Result) error {
	var fields []string
	for f := range res.Errors {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	var msgs []string
	for _, f := range fields {
		msgs = append(msgs, fmt.Sprintf("%v: %v", f, res.Errors[f]))
	}
	return fmt.Errorf("invalid account, %v", strings.Join(msgs, "; "))
}
