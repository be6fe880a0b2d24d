package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newKeyCmd(e *env) *cobra.Command {
	var clearKey bool

	cmd := &cobra.Command{
		Use:   "key [api-key]",
		Short: "Set or inspect the API key",
		Args:  cobra.MaximumNArgs(1),
		RunE: e.withApp(func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()
			switch {
			case clearKey:
				if err := e.app.Settings.SetAPIKey(ctx, ""); err != nil {
					return err
				}
				fmt.Fprintln(out, "API key cleared")
			case len(args) == 1:
				if err := e.app.Settings.SetAPIKey(ctx, args[0]); err != nil {
					return err
				}
				fmt.Fprintln(out, "API key saved")
			default:
				cfg, err := e.app.Settings.Load(ctx)
				if err != nil {
					return err
				}
				if cfg.HasAPIKey() {
					fmt.Fprintln(out, "API key is set")
				} else {
					fmt.Fprintln(out, "API key is not set")
				}
			}
			return nil
		}),
	}
	cmd.Flags().BoolVar(&clearKey, "clear", false, "Remove the stored API key")
	return cmd
}

func newModelCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "model [name]",
		Short: "List models or select one",
		Args:  cobra.MaximumNArgs(1),
		RunE: e.withApp(func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()
			if len(args) == 1 {
				if err := e.app.Settings.SetModel(ctx, args[0]); err != nil {
					return err
				}
			}

			cfg, err := e.app.Settings.Load(ctx)
			if err != nil {
				return err
			}
			for _, m := range e.app.Settings.Catalog().Models {
				marker := " "
				if m.Name == cfg.SelectedModel {
					marker = "*"
				}
				fmt.Fprintf(out, "%s %s (%s)\n", marker, m.Name, m.ID)
			}
			return nil
		}),
	}
}
