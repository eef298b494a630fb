package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/valter-silva-au/ai-curious-brain/pkg/models"
)

func requireAgent() error {
	if Agent == nil {
		return fmt.Errorf("agent not initialized")
	}
	return nil
}

// dispatch routes intent through the agent and prints the response.
func dispatch(intent models.Intent) error {
	if err := requireAgent(); err != nil {
		return err
	}
	resp, err := Agent.Dispatch(intent)
	if err != nil {
		return fmt.Errorf("dispatching %s intent: %w", intent.Kind, err)
	}
	printResponse(resp)
	return nil
}

func printResponse(resp models.Response) {
	fmt.Println(resp.Text)
	for _, id := range resp.GoalIDs {
		fmt.Printf("  goal: %s\n", id)
	}
}

var doCmd = &cobra.Command{
	Use:   "do <verb> [args...]",
	Short: "Give the agent a command",
	Long: `Give the agent a command such as "take the red sphere" or
"if the chest is open then take the ball". The command becomes a goal that
runs on later ticks; if it mentions unknown words the agent asks about them
first.`,
	Example: `  acb do take the red sphere
  acb do verify the sphere is in the chest
  acb do if the chest is open then take the ball`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return dispatch(models.CommandIntent(args[0], args[1:]...))
	},
}

var askCmd = &cobra.Command{
	Use:   "ask <find|verify|where|inventory|knowledge> [args...]",
	Short: "Ask the agent a question",
	Long: `Ask a question about the world or about what the agent knows. Questions
that only use known words are answered immediately; otherwise a goal is
created and answered once the words are taught.`,
	Example: `  acb ask where ball
  acb ask knowledge sphere`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind := models.QueryKind(strings.ToLower(args[0]))
		switch kind {
		case models.QueryFind, models.QueryVerify, models.QueryWhere, models.QueryInventory, models.QueryKnowledge:
		default:
			return fmt.Errorf("unknown question kind %q (use find, verify, where, inventory or knowledge)", args[0])
		}
		return dispatch(models.QueryIntent(kind, args[1:]...))
	},
}

var teachCmd = &cobra.Command{
	Use:   "teach <word> <word-type> <expression...>",
	Short: "Teach the agent the meaning of a word",
	Long: `Teach the agent a word. The expression must type-check for the word type:
nouns and properties take a predicate over obj, relations a predicate over
a and b, actions one of the known action labels.

Goals waiting on the word resume on the next tick.`,
	Example: `  acb teach flute noun "shape == 'cylinder' and material == 'wood'"
  acb teach crimson property "color == 'red'"`,
	Args: cobra.MinimumNArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		expr := strings.Join(args[2:], " ")
		return dispatch(models.TeachIntent(args[0], models.WordType(args[1]), expr))
	},
}

var sayCmd = &cobra.Command{
	Use:   "say <words...>",
	Short: "Say something the agent has to figure out",
	Long: `Send free-form words as an unresolved utterance. Unknown content words
become an understand goal. Grammar and known words are ignored, so if every
word is known the agent asks for clarification instead.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireAgent(); err != nil {
			return err
		}
		return dispatch(Agent.Utterance(args))
	},
}

var socialCmd = &cobra.Command{
	Use:       "social <greeting|thanks|farewell>",
	Short:     "Exchange pleasantries with the agent",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"greeting", "thanks", "farewell"},
	RunE: func(cmd *cobra.Command, args []string) error {
		return dispatch(models.SocialIntent(args[0]))
	},
}

var intentFile string

var intentCmd = &cobra.Command{
	Use:   "intent --file <intent.yaml>",
	Short: "Dispatch an intent read from a YAML file",
	Long: `Dispatch a fully structured intent, for callers that parse language
themselves. The file holds the intent fields, for example:

  kind: command
  verb: take
  args: [red, sphere]
  priority: 3`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if intentFile == "" {
			return fmt.Errorf("--file is required")
		}
		data, err := os.ReadFile(intentFile)
		if err != nil {
			return fmt.Errorf("reading intent file: %w", err)
		}
		var intent models.Intent
		if err := yaml.Unmarshal(data, &intent); err != nil {
			return fmt.Errorf("parsing intent file: %w", err)
		}
		if intent.Kind == "" {
			return fmt.Errorf("intent file %s has no kind", intentFile)
		}
		return dispatch(intent)
	},
}

func init() {
	intentCmd.Flags().StringVarP(&intentFile, "file", "f", "", "YAML file holding the intent")
	rootCmd.AddCommand(doCmd, askCmd, teachCmd, sayCmd, socialCmd, intentCmd)
}
