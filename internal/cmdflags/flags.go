package cmdflags

import (
	"github.com/andrebq/blogbox/auth"
	"github.com/urfave/cli/v2"
)

func Database(out *string) cli.Flag {
	if len(*out) == 0 {
		*out = "blogbox.db"
	}
	return &cli.StringFlag{
		Name:        "db",
		Aliases:     []string{"d"},
		Usage:       "Path to the sqlite database holding accounts and posts",
		EnvVars:     []string{"BLOGBOX_DB"},
		Destination: out,
		Value:       *out,
	}
}

func PepperEnvVar(out *string) cli.Flag {
	if len(*out) == 0 {
		*out = auth.PepperEnvVar
	}
	return &cli.StringFlag{
		Name:        "pepper-envvar-name",
		Usage:       "Name of the environment variable that holds the password pepper. The key itself should not be passed as an argument",
		Value:       *out,
		Destination: out,
	}
}
