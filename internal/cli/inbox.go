package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var inboxCmd = &cobra.Command{
	Use:   "inbox",
	Short: "Exchange intents through the inbox directory",
	Long: `Intents can be dropped as markdown files with YAML frontmatter into the
inbox/ directory under the base path. Replies, questions and answers are
written to outbox/.`,
}

var inboxWatch bool

var inboxProcessCmd = &cobra.Command{
	Use:   "process",
	Short: "Dispatch pending inbox intents",
	Long: `Dispatch every pending intent in inbox/, write a reply for each to outbox/
and mark the file processed. With --watch, keep watching the directory and
process new files as they arrive.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireAgent(); err != nil {
			return err
		}
		if Inbox == nil {
			return fmt.Errorf("inbox not initialized")
		}

		if inboxWatch {
			ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
			defer stop()
			fmt.Printf("Watching %s (Ctrl-C to stop)\n", Inbox.InboxDir())
			if err := Inbox.Watch(ctx, Agent); err != nil {
				return fmt.Errorf("watching inbox: %w", err)
			}
			return nil
		}

		n, err := Inbox.Process(Agent)
		if err != nil {
			return fmt.Errorf("processing inbox: %w", err)
		}
		if n == 0 {
			fmt.Println("No pending intents.")
			return nil
		}
		fmt.Printf("Processed %d intent(s); replies are in %s\n", n, Inbox.OutboxDir())
		return nil
	},
}

func init() {
	inboxProcessCmd.Flags().BoolVar(&inboxWatch, "watch", false, "Keep watching the inbox for new intents")
	inboxCmd.AddCommand(inboxProcessCmd)
	rootCmd.AddCommand(inboxCmd)
}
