package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/valter-silva-au/ai-curious-brain/pkg/models"
)

var (
	goalsHistory bool
	goalsJSON    bool
)

var goalsCmd = &cobra.Command{
	Use:   "goals",
	Short: "List the agent's goals",
	Long: `List active goals in the order the scheduler serves them: priority first,
then age. Use --history to include completed, failed and abandoned goals.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireAgent(); err != nil {
			return err
		}
		goals := Agent.ActiveGoals()
		if goalsHistory {
			goals = append(goals, Agent.GoalHistory()...)
		}

		if goalsJSON {
			data, err := json.MarshalIndent(goals, "", "  ")
			if err != nil {
				return fmt.Errorf("formatting goals as JSON: %w", err)
			}
			fmt.Println(string(data))
			return nil
		}

		if len(goals) == 0 {
			fmt.Println("No goals.")
			return nil
		}
		fmt.Printf("%-12s %-12s %-18s %-4s %-6s %s\n", "ID", "KIND", "STATUS", "PRI", "STEPS", "TARGET")
		for _, g := range goals {
			fmt.Printf("%-12s %-12s %-18s %-4d %-6s %s\n",
				g.ID, g.Kind, g.Status, g.Priority,
				fmt.Sprintf("%d/%d", g.StepsExecuted, len(g.Plan)),
				goalTarget(g))
		}
		return nil
	},
}

// goalTarget summarizes what a goal is about for the listing.
func goalTarget(g *models.Goal) string {
	var parts []string
	if len(g.UnknownTokens) > 0 {
		parts = append(parts, "learn: "+strings.Join(g.UnknownTokens, ", "))
	} else if len(g.Target.Words) > 0 {
		parts = append(parts, strings.Join(g.Target.Words, " "))
	}
	if g.BlockedBy != "" {
		parts = append(parts, "blocked by "+g.BlockedBy)
	}
	if g.Reason != "" {
		parts = append(parts, "("+g.Reason+")")
	}
	return strings.Join(parts, " ")
}

var abandonReason string

var abandonCmd = &cobra.Command{
	Use:   "abandon <goal-id>",
	Short: "Abandon an active goal",
	Long: `Cancel a goal that has not finished. Goals that depend on it fail on their
next tick.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireAgent(); err != nil {
			return err
		}
		g, err := Agent.Abandon(args[0], abandonReason)
		if err != nil {
			return fmt.Errorf("abandoning goal: %w", err)
		}
		fmt.Printf("Goal %s abandoned (%s).\n", g.ID, g.Reason)
		return nil
	},
}

func init() {
	goalsCmd.Flags().BoolVar(&goalsHistory, "history", false, "Include terminal goals")
	goalsCmd.Flags().BoolVar(&goalsJSON, "json", false, "Output goals as JSON")
	abandonCmd.Flags().StringVar(&abandonReason, "reason", "abandoned by user", "Why the goal is abandoned")
	rootCmd.AddCommand(goalsCmd, abandonCmd)
}
