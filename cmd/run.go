package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/example/classpick/internal/attempts"
	"github.com/example/classpick/internal/config"
	"github.com/example/classpick/internal/credentials"
	"github.com/example/classpick/internal/db"
	"github.com/example/classpick/internal/logger"
	"github.com/example/classpick/internal/login"
	"github.com/example/classpick/internal/migrate"
	"github.com/example/classpick/internal/outcomes"
	"github.com/example/classpick/internal/portal"
	"github.com/example/classpick/internal/registration"
	"github.com/example/classpick/internal/scheduler"
	"github.com/example/classpick/internal/web"
	"github.com/google/uuid"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

func newRunCmd() *cobra.Command {
	var (
		username  string
		password  string
		noSpinner bool
	)

	cmd := &cobra.Command{
		Use:   "run [class-id...]",
		Short: "Log in and keep trying to register for the given classes",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, map[string]string{
				"poll.interval": "interval",
				"status.listen": "listen",
			})
			if err != nil {
				return err
			}
			if err := cfg.RequirePortal(); err != nil {
				return err
			}

			runID := uuid.NewString()
			log := logger.Init(logger.Options{
				Level:        cfg.LogLevel,
				Format:       cfg.LogFormat,
				StaticFields: map[string]string{"run_id": runID},
			})

			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			out := cmd.OutOrStdout()
			printBanner(out)

			provider, err := credentialsProvider(cfg, username, password)
			if err != nil {
				return err
			}
			client, err := portal.New(cfg.PortalURL, portal.WithTimeout(cfg.AttemptTimeout))
			if err != nil {
				return err
			}

			policy := login.Policy{MaxAttempts: cfg.LoginMaxAttempts, Delay: cfg.LoginDelay}
			doLogin := func(ctx context.Context, rep login.Reporter) (registration.Session, error) {
				return login.TryLogin(ctx, client, provider, policy, rep)
			}
			var session registration.Session
			if !noSpinner && isTerminal(out) {
				session, err = runLoginSpinner(ctx, out, doLogin)
			} else {
				session, err = doLogin(ctx, lineReporter{w: out})
			}
			if err != nil {
				return err
			}
			fmt.Fprintln(out, okStyle.Render("Successfully logged in!"))

			targets, err := pickTargets(args, cmd.InOrStdin(), out)
			if err != nil {
				return err
			}

			rec, closeRecorders, err := openRecorders(ctx, cfg, out)
			if err != nil {
				return err
			}
			defer closeRecorders()

			s := &scheduler.Scheduler{
				Session:        session,
				Recorder:       rec,
				Interval:       cfg.PollInterval,
				AttemptTimeout: cfg.AttemptTimeout,
				RunID:          runID,
				Log:            logger.Named("scheduler"),
			}

			srvCtx, stopServer := context.WithCancel(ctx)
			defer stopServer()
			if cfg.StatusListen != "" {
				ws := &web.Server{Poller: s, RunID: runID, Log: logger.Named("web")}
				go func() {
					if err := web.Start(srvCtx, cfg.StatusListen, ws.Routes()); err != nil {
						log.Error().Err(err).Msg("status endpoint stopped")
					}
				}()
			}

			fmt.Fprintln(out, hintStyle.Render(fmt.Sprintf("Polling %d class(es) every %s, press Ctrl+C to stop", len(targets), cfg.PollInterval)))
			err = s.Run(ctx, targets)
			switch {
			case errors.Is(err, context.Canceled):
				fmt.Fprintln(out, "Stopped.")
				return nil
			case err != nil:
				return err
			}
			fmt.Fprintln(out, okStyle.Render("Done."))
			return nil
		},
	}

	cmd.Flags().StringVar(&username, "username", "", "portal username (default: stored credentials)")
	cmd.Flags().StringVar(&password, "password", "", "portal password")
	cmd.Flags().Duration("interval", scheduler.DefaultInterval, "delay between attempts for each class")
	cmd.Flags().String("listen", "", "serve poll status on this address, e.g. 127.0.0.1:8090")
	cmd.Flags().BoolVar(&noSpinner, "no-spinner", false, "print login progress as plain lines")
	cmd.MarkFlagsRequiredTogether("username", "password")
	return cmd
}

func credentialsProvider(cfg config.Config, username, password string) (registration.CredentialsProvider, error) {
	if username != "" {
		return credentials.Static{Username: username, Password: password}, nil
	}
	return openStore(cfg)
}

// openRecorders builds the outcome sinks: the two log files, the console
// mirror and, when a database is configured, the attempt history.
func openRecorders(ctx context.Context, cfg config.Config, out io.Writer) (outcomes.Recorder, func(), error) {
	files, err := outcomes.OpenFileLog(cfg.SuccessLogPath, cfg.FailureLogPath)
	if err != nil {
		return nil, nil, err
	}
	recs := outcomes.Multi{files, outcomes.NewConsole(out)}
	closers := []func(){func() { _ = files.Close() }}
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	if cfg.DatabaseURL == "" {
		return recs, closeAll, nil
	}

	d, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		closeAll()
		return nil, nil, err
	}
	closers = append(closers, d.Close)
	if err := d.Ping(ctx); err != nil {
		closeAll()
		return nil, nil, fmt.Errorf("db ping: %w", err)
	}
	migrateCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := migrate.Up(migrateCtx, d); err != nil {
		closeAll()
		return nil, nil, err
	}
	return append(recs, attempts.NewRepo(d)), closeAll, nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
