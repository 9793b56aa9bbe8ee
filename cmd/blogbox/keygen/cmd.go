package keygen

import (
	"crypto/rand"
	"fmt"

	"github.com/andrebq/blogbox/auth"
	"github.com/urfave/cli/v2"
)

func Cmd() *cli.Command {
	return &cli.Command{
		Name:  "keygen",
		Usage: "Print a new random pepper, export it in the variable named by --pepper-envvar-name",
		Action: func(ctx *cli.Context) error {
			key, err := auth.GenerateKey(rand.Reader)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(ctx.App.Writer, key)
			return err
		},
	}
}
