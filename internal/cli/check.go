package cli

import (
	"github.com/spf13/cobra"

	"limpopo-ai/internal/ui"
)

const notSet = "(not set)"

func newCheckCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Validate configuration without calling the model",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return app.runCheck(cmd)
		},
	}
}

func (a *App) runCheck(cmd *cobra.Command) error {
	c := ui.NewConsole(a.Out)

	s, err := a.prepare(cmd.Context())
	if err != nil {
		return err
	}
	client, err := a.newCompleter(s, c)
	if err != nil {
		return err
	}

	c.Success("Configuration OK")
	c.Field("Endpoint", client.Endpoint())
	c.Field("Model", client.Model())
	c.Field("Token", ui.MaskToken(s.cfg.GitHubToken))
	c.Field("Token source", s.tokenSource)
	c.Field("Timeout", s.cfg.Timeout.String())
	c.Field("Log level", s.cfg.LogLevel)
	c.Field("Description table", orNotSet(s.cfg.DescriptionTable))
	return nil
}

func orNotSet(v string) string {
	if v == "" {
		return notSet
	}
	return v
}
