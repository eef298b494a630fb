package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/valter-silva-au/ai-curious-brain/internal/core"
)

var (
	tickCount int
	tickJSON  bool
)

var tickCmd = &cobra.Command{
	Use:   "tick",
	Short: "Run scheduler ticks",
	Long: `Run one or more scheduler ticks. Each tick advances the highest priority
eligible goal by one step, runs a reflection pass over recent events, or
consults the learner about words the agent is waiting to be taught.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireAgent(); err != nil {
			return err
		}
		if tickCount < 1 {
			return fmt.Errorf("-n must be at least 1, got %d", tickCount)
		}
		reports := make([]core.TickReport, 0, tickCount)
		for i := 0; i < tickCount; i++ {
			rep, err := Agent.Tick(commandContext(cmd))
			reports = append(reports, rep)
			if err != nil {
				if !tickJSON {
					printTickReports(reports)
				}
				return fmt.Errorf("tick %d: %w", rep.Tick, err)
			}
		}
		if tickJSON {
			data, err := json.MarshalIndent(reports, "", "  ")
			if err != nil {
				return fmt.Errorf("formatting ticks as JSON: %w", err)
			}
			fmt.Println(string(data))
			return nil
		}
		printTickReports(reports)
		return nil
	},
}

func printTickReports(reports []core.TickReport) {
	for _, rep := range reports {
		fmt.Println(formatTick(rep))
		for _, art := range rep.Artifacts {
			fmt.Printf("    %s: %s\n", art.Kind, art.Text)
		}
	}
}

// formatTick renders a one-line summary of a tick.
func formatTick(rep core.TickReport) string {
	switch rep.Kind {
	case core.TickGoal:
		line := fmt.Sprintf("tick %d: goal %s -> %s", rep.Tick, rep.GoalID, rep.Status)
		if rep.Reason != "" {
			line += " (" + rep.Reason + ")"
		}
		return line
	case core.TickReflection:
		r := rep.Reflection
		if r == nil {
			return fmt.Sprintf("tick %d: reflection", rep.Tick)
		}
		return fmt.Sprintf("tick %d: reflection processed=%d skipped=%d nodes=%d edges=%d",
			rep.Tick, r.Processed, r.Skipped, r.NodesCreated, r.EdgesUpdated)
	case core.TickLearner:
		if len(rep.Learned) == 0 {
			return fmt.Sprintf("tick %d: learner had no confident answer", rep.Tick)
		}
		return fmt.Sprintf("tick %d: learned %s", rep.Tick, strings.Join(rep.Learned, ", "))
	default:
		return fmt.Sprintf("tick %d: idle", rep.Tick)
	}
}

func init() {
	tickCmd.Flags().IntVarP(&tickCount, "count", "n", 1, "Number of ticks to run")
	tickCmd.Flags().BoolVar(&tickJSON, "json", false, "Output tick reports as JSON")
	rootCmd.AddCommand(tickCmd)
}
