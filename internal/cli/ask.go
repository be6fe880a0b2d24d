package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ashureev/leetcode-assistant/internal/assistant"
)

func newAskCmd(e *env) *cobra.Command {
	var (
		slug    string
		chatID  string
		newChat bool
	)

	cmd := &cobra.Command{
		Use:   "ask <message>",
		Short: "Send a message and stream the reply",
		Long: `Send a message in the most recent conversation of a problem and stream the reply.

Examples:
  assistantctl ask --problem two-sum "Why is my solution O(n^2)?"
  assistantctl ask --problem two-sum --new "Give me a hint"`,
		Args: cobra.MinimumNArgs(1),
		RunE: e.withApp(func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			st := e.app.Store

			<-st.SelectProblem(ctx, slug)
			switch {
			case chatID != "":
				if !st.SelectConversation(chatID) {
					return fmt.Errorf("chat %q not found", chatID)
				}
			case newChat:
				st.StartNewConversation()
			}

			out := cmd.OutOrStdout()
			var streamErr string
			_, err := e.app.Assistant.Send(ctx, assistant.SendRequest{Text: strings.Join(args, " ")}, func(ev assistant.Event) {
				switch ev.Type {
				case assistant.EventChunk:
					fmt.Fprint(out, ev.Chunk)
				case assistant.EventError:
					streamErr = ev.Error
				}
			})
			if err != nil {
				return err
			}
			fmt.Fprintln(out)
			if streamErr != "" {
				return errors.New(streamErr)
			}
			return nil
		}),
	}

	cmd.Flags().StringVarP(&slug, "problem", "p", "", "Problem slug (required)")
	cmd.Flags().StringVarP(&chatID, "chat", "c", "", "Conversation id (default: most recent)")
	cmd.Flags().BoolVar(&newChat, "new", false, "Start a new conversation")
	_ = cmd.MarkFlagRequired("problem")
	cmd.MarkFlagsMutuallyExclusive("chat", "new")
	return cmd
}
