package cli

import (
	"context"
	"fmt"
	"net/url"
	"os"

	"github.com/spf13/cobra"

	"github.com/ashureev/leetcode-assistant/internal/domain"
	"github.com/ashureev/leetcode-assistant/internal/scrape"
	"github.com/ashureev/leetcode-assistant/internal/store"
)

func newScrapeCmd(e *env) *cobra.Command {
	var (
		slug     string
		pageURL  string
		codeFile string
	)

	cmd := &cobra.Command{
		Use:   "scrape <page.html>",
		Short: "Import a saved problem page",
		Long: `Parse a saved problem page and store its details, optionally with code.

Examples:
  assistantctl scrape two-sum.html --url https://leetcode.com/problems/two-sum/
  assistantctl scrape page.html --problem two-sum --code solution.py`,
		Args: cobra.ExactArgs(1),
		RunE: e.withApp(func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if slug == "" && pageURL != "" {
				u, err := url.Parse(pageURL)
				if err != nil {
					return fmt.Errorf("parse url: %w", err)
				}
				slug = scrape.SlugFromPath(u.Path)
			}
			if slug == "" {
				return fmt.Errorf("a problem slug is required (--problem or --url)")
			}

			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()
			details, err := scrape.Parse(f)
			if err != nil {
				return err
			}
			if !details.HasContent() {
				return fmt.Errorf("no problem details found in %s", args[0])
			}

			var code string
			if codeFile != "" {
				b, err := os.ReadFile(codeFile)
				if err != nil {
					return err
				}
				code = string(b)
			}

			kv := e.app.KV
			reporter := scrape.NewReporter(slug, func(ctx context.Context, slug string, data domain.ProblemData) error {
				return store.SaveProblem(ctx, kv, slug, data)
			}, e.logger)
			if err := reporter.SetDetails(ctx, details); err != nil {
				return err
			}
			if _, err := reporter.CodeChanged(ctx, code); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Stored %q as %s (%d examples)\n", details.Title, slug, len(details.Examples))
			return nil
		}),
	}

	cmd.Flags().StringVarP(&slug, "problem", "p", "", "Problem slug")
	cmd.Flags().StringVar(&pageURL, "url", "", "Page URL; the slug is taken from its path")
	cmd.Flags().StringVar(&codeFile, "code", "", "File with the current code")
	return cmd
}
