package serve

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/andrebq/blogbox/auth"
	"github.com/andrebq/blogbox/internal/cmdflags"
	"github.com/andrebq/blogbox/internal/httpserver"
	"github.com/andrebq/blogbox/internal/logutil"
	"github.com/andrebq/blogbox/internal/router"
	"github.com/andrebq/blogbox/journal"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/urfave/cli/v2"
)

func Cmd() *cli.Command {
	bindAddr := "localhost:8000"
	var dbFile string
	var pepperEnvVar string
	backend := auth.BackendSQLite
	var sessionsFile string
	ttl := auth.DefaultSessionTTL
	var opts router.Options
	var withMetrics bool
	return &cli.Command{
		Name:  "serve",
		Usage: "Start the blog http server",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "bind",
				Usage:       "Address to bind the http server",
				EnvVars:     []string{"BLOGBOX_BIND"},
				Value:       bindAddr,
				Destination: &bindAddr,
			},
			cmdflags.Database(&dbFile),
			cmdflags.PepperEnvVar(&pepperEnvVar),
			&cli.StringFlag{
				Name:        "sessions",
				Usage:       fmt.Sprintf("Where sessions are kept, one of %v", strings.Join(auth.Backends, ", ")),
				EnvVars:     []string{"BLOGBOX_SESSIONS"},
				Value:       backend,
				Destination: &backend,
			},
			&cli.StringFlag{
				Name:        "sessions-file",
				Usage:       "File used by the bolt session backend (defaults to sessions.bolt next to the database)",
				EnvVars:     []string{"BLOGBOX_SESSIONS_FILE"},
				Destination: &sessionsFile,
			},
			&cli.DurationFlag{
				Name:        "session-ttl",
				Usage:       "How long a login lasts",
				EnvVars:     []string{"BLOGBOX_SESSION_TTL"},
				Value:       ttl,
				Destination: &ttl,
			},
			&cli.StringFlag{
				Name:        "landing",
				Usage:       "Where users go after register, login and logout",
				EnvVars:     []string{"BLOGBOX_LANDING"},
				Value:       "/posts/",
				Destination: &opts.Landing,
			},
			&cli.StringFlag{
				Name:        "login-url",
				Usage:       "Path anonymous users are sent to when they open a protected page",
				EnvVars:     []string{"BLOGBOX_LOGIN_URL"},
				Value:       "/users/login/",
				Destination: &opts.LoginURL,
			},
			&cli.BoolFlag{
				Name:        "insecure-cookies",
				Usage:       "Allow cookies over plain http, only for local development",
				EnvVars:     []string{"BLOGBOX_INSECURE_COOKIES"},
				Destination: &opts.InsecureCookie,
			},
			&cli.BoolFlag{
				Name:        "metrics",
				Usage:       "Expose prometheus metrics at /metrics",
				EnvVars:     []string{"BLOGBOX_METRICS"},
				Destination: &withMetrics,
			},
		},
		Action: func(ctx *cli.Context) error {
			log := logutil.GetOrDefault(ctx.Context)
			keyfn, err := auth.KeyFNFromEnv(pepperEnvVar, os.Getenv, os.Setenv)
			if err != nil {
				return fmt.Errorf("unable to read pepper from %v, cause %w", pepperEnvVar, err)
			}
			j, err := journal.Open(ctx.Context, dbFile)
			if err != nil {
				return err
			}
			defer j.Close()

			if sessionsFile == "" {
				sessionsFile = filepath.Join(filepath.Dir(dbFile), "sessions.bolt")
			}
			sessions, release, err := auth.OpenSessionStore(backend, j, sessionsFile, ttl)
			if err != nil {
				return err
			}
			defer release()

			if withMetrics {
				opts.Registry = prometheus.NewRegistry()
				opts.Registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
			}
			svc := auth.NewService(j, sessions, auth.NewHasher(keyfn), ttl)
			handler, err := router.AsHandler(ctx.Context, svc, j, opts)
			if err != nil {
				return err
			}
			log.Info().Str("db", dbFile).Str("sessions", backend).Dur("sessionTTL", ttl).Bool("metrics", withMetrics).Msg("Blog ready")
			return httpserver.Serve(ctx.Context, bindAddr, handler)
		},
	}
}
