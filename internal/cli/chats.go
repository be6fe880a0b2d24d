package cli

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newChatsCmd(e *env) *cobra.Command {
	var (
		slug     string
		jsonOut  bool
		showFull string
	)

	cmd := &cobra.Command{
		Use:   "chats",
		Short: "List the conversations of a problem",
		Args:  cobra.NoArgs,
		RunE: e.withApp(func(cmd *cobra.Command, _ []string) error {
			st := e.app.Store
			<-st.SelectProblem(cmd.Context(), slug)
			snap := st.Snapshot()
			out := cmd.OutOrStdout()

			if showFull != "" {
				c := snap.Chat(showFull)
				if c == nil {
					return fmt.Errorf("chat %q not found", showFull)
				}
				for _, m := range c.Messages {
					who := "Assistant"
					if m.IsUser {
						who = "User"
					}
					fmt.Fprintf(out, "%s [%s]: %s\n", who, m.Status, m.Text)
				}
				return nil
			}

			summaries := st.Summaries()
			if jsonOut {
				b, err := json.MarshalIndent(summaries, "", "  ")
				if err != nil {
					return err
				}
				fmt.Fprintln(out, string(b))
				return nil
			}

			tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			for _, s := range summaries {
				marker := " "
				if s.Active {
					marker = "*"
				}
				fmt.Fprintf(tw, "%s %s\t%s\t%s\t%d messages\n", marker, s.ID, s.Title, s.RelativeTime, s.MessageCount)
			}
			return tw.Flush()
		}),
	}

	cmd.Flags().StringVarP(&slug, "problem", "p", "", "Problem slug (required)")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print summaries as JSON")
	cmd.Flags().StringVar(&showFull, "show", "", "Print the messages of one conversation")
	_ = cmd.MarkFlagRequired("problem")
	return cmd
}
