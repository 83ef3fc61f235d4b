// Package cli implements the limpopo-ai command line.
package cli

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"os/signal"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awsssm "github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/spf13/cobra"

	"limpopo-ai/internal/config"
	"limpopo-ai/internal/integrations/inference"
	"limpopo-ai/internal/integrations/paramstore"
	"limpopo-ai/internal/logging"
	"limpopo-ai/internal/repository"
	"limpopo-ai/internal/ui"
	"limpopo-ai/internal/usecase"
)

const tokenURL = "https://github.com/settings/tokens"

// Completer is the slice of *inference.Client the commands use.
type Completer interface {
	Complete(ctx context.Context, userMessage, systemMessage string) (string, error)
	Ask(ctx context.Context, userMessage, systemMessage string) string
	Endpoint() string
	Model() string
}

// App holds the collaborators of every command. Tests replace the
// factories; Execute wires the real ones.
type App struct {
	Out io.Writer
	Err io.Writer

	LoadConfig     func() (config.Config, error)
	NewCompleter   func(cfg inference.Config, logger *slog.Logger) (Completer, error)
	NewTokenSource func(ctx context.Context) (config.TokenSource, error)
	NewStore       func(ctx context.Context, table string) (usecase.DescriptionStore, error)
}

func NewApp(out, errOut io.Writer) *App {
	return &App{
		Out:            out,
		Err:            errOut,
		LoadConfig:     config.Load,
		NewCompleter:   newInferenceClient,
		NewTokenSource: newParamStore,
		NewStore:       newDescriptionStore,
	}
}

func newInferenceClient(cfg inference.Config, logger *slog.Logger) (Completer, error) {
	c, err := inference.NewClient(cfg, inference.WithLogger(logger))
	if err != nil {
		return nil, err
	}
	return c, nil
}

func newParamStore(ctx context.Context) (config.TokenSource, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, err
	}
	c, err := paramstore.New(awsssm.NewFromConfig(awsCfg))
	if err != nil {
		return nil, err
	}
	return c, nil
}

func newDescriptionStore(ctx context.Context, table string) (usecase.DescriptionStore, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, err
	}
	c, err := repository.New(awsdynamodb.NewFromConfig(awsCfg), table)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// reportedError marks a failure whose message the command already printed.
type reportedError struct {
	err error
}

func (e *reportedError) Error() string { return e.err.Error() }

func (e *reportedError) Unwrap() error { return e.err }

func reported(err error) error {
	return &reportedError{err: err}
}

// NewRootCommand builds the command tree bound to app.
func NewRootCommand(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:           "limpopo-ai",
		Short:         "limpopo-ai: GitHub Models inference for Limpopo Connect",
		Long:          "limpopo-ai sends chat completions to GitHub Models and generates business descriptions for the Limpopo Connect directory.",
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	root.SetOut(app.Out)
	root.SetErr(app.Err)

	root.AddCommand(newDemoCommand(app))
	root.AddCommand(newAskCommand(app))
	root.AddCommand(newDescribeCommand(app))
	root.AddCommand(newCheckCommand(app))
	return root
}

// Run executes args and returns the process exit code.
func (a *App) Run(ctx context.Context, args []string) int {
	root := NewRootCommand(a)
	root.SetArgs(args)
	if err := root.ExecuteContext(ctx); err != nil {
		var rep *reportedError
		if !errors.As(err, &rep) {
			ui.NewConsole(a.Err).Failure("Error: %s", err)
		}
		return 1
	}
	return 0
}

// Execute runs the CLI against the process arguments.
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return NewApp(os.Stdout, os.Stderr).Run(ctx, os.Args[1:])
}

// session is the resolved configuration shared by the commands.
type session struct {
	cfg         config.Config
	logger      *slog.Logger
	tokenSource string
}

// prepare loads configuration and resolves the token from the parameter
// store when GITHUB_TOKEN is unset.
func (a *App) prepare(ctx context.Context) (session, error) {
	cfg, err := a.LoadConfig()
	if err != nil {
		ui.NewConsole(a.Out).Failure("Configuration Error: %s", err)
		return session{}, reported(err)
	}
	logger := logging.New(a.Err, cfg.LogLevel)

	source := "environment"
	if cfg.NeedsTokenLookup() {
		src, err := a.NewTokenSource(ctx)
		if err != nil {
			ui.NewConsole(a.Out).Failure("Error: parameter store: %s", err)
			return session{}, reported(err)
		}
		if err := cfg.ResolveToken(ctx, src); err != nil {
			ui.NewConsole(a.Out).Failure("Configuration Error: %s", err)
			return session{}, reported(err)
		}
		source = "ssm:" + cfg.TokenParameter
	}
	return session{cfg: cfg, logger: logger, tokenSource: source}, nil
}

// printMissingToken prints the remediation for an absent credential.
func printMissingToken(c *ui.Console, err error) {
	c.Failure("Configuration Error: %s", err)
	c.Blank()
	c.Line("Please set your GITHUB_TOKEN environment variable:")
	c.Line("  export GITHUB_TOKEN='your_github_personal_access_token'")
	c.Blank()
	c.Line("You can generate a token at: %s", tokenURL)
}

// newCompleter builds the client and prints remediation when the token is
// missing. Any failure is returned already reported.
func (a *App) newCompleter(s session, c *ui.Console) (Completer, error) {
	client, err := a.NewCompleter(s.cfg.Inference(), s.logger)
	if err != nil {
		if inference.IsConfigError(err) {
			printMissingToken(c, err)
		} else {
			c.Failure("Error: %s", err)
		}
		return nil, reported(err)
	}
	return client, nil
}
