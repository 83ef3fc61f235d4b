package cli

import (
	"github.com/spf13/cobra"

	"limpopo-ai/internal/ui"
)

const demoQuestion = "What is the capital of France?"

func newDemoCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "demo",
		Short: "Send an example question and print the answer",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return app.runDemo(cmd)
		},
	}
}

func (a *App) runDemo(cmd *cobra.Command) error {
	ctx := cmd.Context()
	c := ui.NewConsole(a.Out)
	c.Banner("GitHub Models Inference for Limpopo Connect")

	s, err := a.prepare(ctx)
	if err != nil {
		return err
	}
	client, err := a.newCompleter(s, c)
	if err != nil {
		return err
	}

	c.Success("Successfully initialized AI client")
	c.Field("Endpoint", client.Endpoint())
	c.Field("Model", client.Model())
	c.Blank()

	c.Heading("Example Query:")
	c.Line("Q: %s", demoQuestion)
	c.Blank()

	// Ask never fails; an upstream error comes back as the answer text.
	c.Heading("AI Response:")
	c.Line("A: %s", client.Ask(ctx, demoQuestion, ""))
	c.Blank()

	c.Rule()
	c.Line("Integration test completed successfully!")
	c.Rule()
	return nil
}
