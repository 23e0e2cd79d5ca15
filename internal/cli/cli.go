// Package cli implements the carelink command.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/kochabx/carelink/core/auth/session"
	chttp "github.com/kochabx/carelink/core/net/http"
	"github.com/kochabx/carelink/errors"
	"github.com/kochabx/carelink/internal/conf"
	"github.com/kochabx/carelink/log"
	"github.com/kochabx/carelink/store/redis"
)

// Version is set at build time with -ldflags "-X ...cli.Version=...".
var Version = "dev"

type CLI struct {
	configPath string
	verbose    bool

	cfg     *conf.CLI
	logger  *log.Logger
	nav     *navigator
	client  *chttp.Client
	closers []func() error
}

// Execute runs the command line and returns the process exit code.
func Execute(ctx context.Context, args []string) int {
	c := &CLI{}
	root := c.Command()
	root.SetArgs(args)

	err := root.ExecuteContext(ctx)
	_ = c.Close()
	if err != nil {
		fmt.Fprintln(root.ErrOrStderr(), "Error:", errorMessage(err))
		return 1
	}
	return 0
}

// Command builds the command tree bound to c.
func (c *CLI) Command() *cobra.Command {
	root := &cobra.Command{
		Use:           "carelink",
		Short:         "Command line client for the carelink API",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(*cobra.Command, []string) {
			// a missing .env is fine
			_ = godotenv.Load()
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&c.configPath, "config", "c", "", "config file (default ./carelink.yaml if present)")
	flags.BoolVarP(&c.verbose, "verbose", "v", false, "log requests and responses")

	root.AddCommand(
		c.loginCommand(),
		c.logoutCommand(),
		c.whoamiCommand(),
		c.recordsCommand(),
		c.predictCommand(),
		versionCommand(),
	)
	return root
}

// Close releases what connect opened, in reverse order.
func (c *CLI) Close() error {
	var errs []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		errs = append(errs, c.closers[i]())
	}
	c.closers = nil
	return errors.Join(errs...)
}

func (c *CLI) config() (*conf.CLI, error) {
	if c.cfg != nil {
		return c.cfg, nil
	}
	cfg, err := conf.LoadCLI(c.configPath)
	if err != nil {
		return nil, err
	}

	var opts []log.Option
	if c.verbose {
		opts = append(opts, log.WithLevel(zerolog.DebugLevel))
		cfg.API.Diagnostic = true
	}
	logger, err := log.FromConfig(cfg.Log, opts...)
	if err != nil {
		return nil, err
	}
	log.SetGlobalLogger(logger)
	c.closers = append(c.closers, logger.Close)

	c.cfg, c.logger = cfg, logger
	return cfg, nil
}

// connect creates the API client. location is where the command "is",
// which decides whether a failed refresh prints the login hint.
func (c *CLI) connect(cmd *cobra.Command, location string) (*chttp.Client, error) {
	if c.client != nil {
		return c.client, nil
	}
	cfg, err := c.config()
	if err != nil {
		return nil, err
	}

	store, err := c.sessionStore(cmd.Context(), cfg)
	if err != nil {
		return nil, err
	}
	jar, err := chttp.OpenFileJar(cfg.CookieJar)
	if err != nil {
		return nil, err
	}

	c.nav = newNavigator(cmd.ErrOrStderr(), location)
	client, err := chttp.NewFromConfig(cfg.API,
		chttp.WithJar(jar),
		chttp.WithSessionStore(store),
		chttp.WithNotifier(notifier{logger: c.logger}),
		chttp.WithNavigator(c.nav),
		chttp.WithLogger(c.logger),
	)
	if err != nil {
		return nil, err
	}
	c.client = client
	return client, nil
}

func (c *CLI) sessionStore(ctx context.Context, cfg *conf.CLI) (session.Store, error) {
	switch cfg.Session.Backend {
	case conf.SessionMemory:
		return session.NewMemoryStore(), nil
	case conf.SessionRedis:
		rdb, err := redis.New(ctx, &cfg.Session.Redis, redis.WithLogger(c.logger))
		if err != nil {
			return nil, err
		}
		c.closers = append(c.closers, rdb.Close)
		return session.NewRedisStore(rdb.UniversalClient(), cfg.Session.Key, cfg.Session.TTL), nil
	default:
		return session.OpenFileStore(cfg.Session.File)
	}
}

// predictor creates a client for the water-quality service. It has its own
// cookies and never refreshes.
func (c *CLI) predictor() (*chttp.Client, error) {
	cfg, err := c.config()
	if err != nil {
		return nil, err
	}
	return chttp.New(cfg.Predictor.BaseURL,
		chttp.WithTimeout(cfg.Predictor.Timeout),
		chttp.WithRefreshDisabled(),
		chttp.WithNotifier(notifier{logger: c.logger}),
		chttp.WithLogger(c.logger),
		chttp.WithDiagnostic(cfg.API.Diagnostic),
	)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// readInput reads path, or stdin when path is "-" or empty.
func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "" || path == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	return os.ReadFile(path)
}

// errorMessage renders err for people: the message plus the server's
// explanation, without codes and metadata.
func errorMessage(err error) string {
	var e *errors.Error
	if !errors.As(err, &e) {
		return err.Error()
	}
	msg := e.GetMessage()
	if detail := chttp.Detail(err); detail != "" && detail != msg {
		msg += ": " + detail
	}
	return msg
}
