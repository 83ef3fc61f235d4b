package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"limpopo-ai/internal/ui"
	"limpopo-ai/internal/usecase"
)

func newAskCommand(app *App) *cobra.Command {
	var system string
	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Ask a single question",
		Long:  "Ask sends one question to the configured model and prints the answer. Failures exit with status 1.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.runAsk(cmd, strings.Join(args, " "), system)
		},
	}
	cmd.Flags().StringVar(&system, "system", "", "system message for this question")
	return cmd
}

func (a *App) runAsk(cmd *cobra.Command, question, system string) error {
	ctx := cmd.Context()
	c := ui.NewConsole(a.Out)

	s, err := a.prepare(ctx)
	if err != nil {
		return err
	}
	client, err := a.newCompleter(s, c)
	if err != nil {
		return err
	}
	svc, err := usecase.NewAskService(client, s.cfg.MaxQuestionLen)
	if err != nil {
		return err
	}

	out, err := svc.Ask(ctx, usecase.AskInput{Question: question, SystemMessage: system})
	if err != nil {
		ui.NewConsole(a.Err).Failure("Error: %s", err)
		return reported(err)
	}
	c.Line("%s", out.Answer)
	return nil
}
