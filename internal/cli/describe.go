package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"limpopo-ai/internal/domain"
	"limpopo-ai/internal/integrations/inference"
	"limpopo-ai/internal/ui"
	"limpopo-ai/internal/usecase"
)

// maxConcurrentDescriptions bounds in-flight inference calls per run.
const maxConcurrentDescriptions = 3

var sampleBusinesses = []domain.Business{
	{Name: "Mokopane Craft Market", Type: "Craft Market", Location: "Mokopane"},
	{Name: "Baobab Country Lodge", Type: "Lodge", Location: "Musina"},
	{Name: "Letaba Restaurant", Type: "Restaurant", Location: "Tzaneen"},
}

// samplePreview is shown in place of live output when no token is set.
var samplePreview = []string{
	"Mokopane Craft Market offers an authentic showcase of Limpopo's",
	"rich artistic heritage, featuring handcrafted pottery, traditional",
	"beadwork, and locally-made textiles. Visit to support local artisans",
	"and take home unique pieces that tell the story of our vibrant culture.",
}

type describeFlags struct {
	name     string
	kind     string
	location string
	save     bool
}

func newDescribeCommand(app *App) *cobra.Command {
	var f describeFlags
	cmd := &cobra.Command{
		Use:   "describe",
		Short: "Generate directory descriptions for businesses",
		Long: "Describe writes a short directory description for a business in Limpopo Province. " +
			"Without --name, --type and --location it describes the built-in sample businesses.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			businesses, err := businessesFromFlags(cmd, f)
			if err != nil {
				return err
			}
			return app.runDescribe(cmd, businesses, f.save)
		},
	}
	cmd.Flags().StringVar(&f.name, "name", "", "business name")
	cmd.Flags().StringVar(&f.kind, "type", "", "business type, e.g. Lodge")
	cmd.Flags().StringVar(&f.location, "location", "", "town in Limpopo Province")
	cmd.Flags().BoolVar(&f.save, "save", false, "store descriptions in DESCRIPTION_TABLE")
	return cmd
}

// businessesFromFlags returns the flagged business, or the samples when no
// business flag is set. A partial set is an error.
func businessesFromFlags(cmd *cobra.Command, f describeFlags) ([]domain.Business, error) {
	flags := []string{"name", "type", "location"}
	missing := lo.Filter(flags, func(name string, _ int) bool {
		return !cmd.Flags().Changed(name)
	})
	switch len(missing) {
	case len(flags):
		return sampleBusinesses, nil
	case 0:
		return []domain.Business{{Name: f.name, Type: f.kind, Location: f.location}}, nil
	default:
		return nil, fmt.Errorf("missing flags: %s", strings.Join(lo.Map(missing, func(name string, _ int) string {
			return "--" + name
		}), ", "))
	}
}

func (a *App) runDescribe(cmd *cobra.Command, businesses []domain.Business, save bool) error {
	ctx := cmd.Context()
	c := ui.NewConsole(a.Out)

	s, err := a.prepare(ctx)
	if err != nil {
		return err
	}
	client, err := a.NewCompleter(s.cfg.Inference(), s.logger)
	if err != nil {
		if inference.IsConfigError(err) {
			printDescribePreview(c)
		} else {
			c.Failure("Error: %s", err)
		}
		return reported(err)
	}

	var store usecase.DescriptionStore
	if save {
		if s.cfg.DescriptionTable == "" {
			return errors.New("--save requires DESCRIPTION_TABLE to be set")
		}
		store, err = a.NewStore(ctx, s.cfg.DescriptionTable)
		if err != nil {
			return fmt.Errorf("description store: %w", err)
		}
	}
	svc, err := usecase.NewDescriptionService(client, store)
	if err != nil {
		return err
	}

	c.Banner("Business Description Generator - Limpopo Connect AI Integration")

	type result struct {
		out usecase.DescribeOutput
		err error
	}
	results := make([]result, len(businesses))
	var eg errgroup.Group
	eg.SetLimit(maxConcurrentDescriptions)
	for i, b := range businesses {
		eg.Go(func() error {
			out, err := svc.Describe(ctx, b)
			results[i] = result{out: out, err: err}
			return nil
		})
	}
	eg.Wait()

	var failed []error
	for i, b := range businesses {
		printBusiness(c, b)
		if err := results[i].err; err != nil {
			c.Failure("Error: %s", err)
			failed = append(failed, err)
		} else {
			c.Line("%s", results[i].out.Description)
			if results[i].out.Saved {
				c.Success("Saved as %s", results[i].out.ID)
			}
		}
		c.Blank()
		c.Divider()
		c.Blank()
	}
	if len(failed) > 0 {
		return reported(errors.Join(failed...))
	}
	return nil
}

func printBusiness(c *ui.Console, b domain.Business) {
	c.Line("Business: %s", b.Name)
	c.Line("Type: %s", b.Type)
	c.Line("Location: %s", b.Location)
	c.Blank()
	c.Heading("Generated Description:")
}

func printDescribePreview(c *ui.Console) {
	c.Warning("GITHUB_TOKEN environment variable not set!")
	c.Blank()
	c.Line("This command requires a GitHub personal access token.")
	c.Line("To run it:")
	c.Blank()
	c.Line("1. Generate a token at: %s", tokenURL)
	c.Line("2. Set it: export GITHUB_TOKEN='your_token'")
	c.Line("3. Run this command again")
	c.Blank()
	c.Line("For now, here's what the output would look like:")
	c.Blank()
	c.Rule()
	printBusiness(c, sampleBusinesses[0])
	for _, line := range samplePreview {
		c.Line("%s", line)
	}
	c.Blank()
}
