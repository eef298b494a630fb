package cli

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/valter-silva-au/ai-curious-brain/internal/observability"
)

var (
	metricsJSON  bool
	metricsSince string
)

// metricsReport is the JSON shape of `acb metrics`.
type metricsReport struct {
	Since time.Time              `json:"since"`
	Log   *observability.Metrics `json:"log"`
	Live  *liveMetrics           `json:"live,omitempty"`
}

// liveMetrics reads the loaded agent rather than the event log.
type liveMetrics struct {
	Tick         uint64 `json:"tick"`
	ActiveGoals  int    `json:"active_goals"`
	Words        int    `json:"words"`
	ConceptNodes int    `json:"concept_nodes"`
}

var metricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "Display goal and learning metrics",
	Long: `Summarise the event log over a look-back window: goals created and how
they ended, goals by kind, words taught by source, questions asked and
reflection passes. The current tick, goal count, lexicon size and concept
graph size of the loaded agent are shown alongside.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if MetricsCalc == nil {
			return fmt.Errorf("metrics calculator not initialized (observability may be disabled)")
		}
		since, err := observability.ParseSince(metricsSince, time.Now().UTC())
		if err != nil {
			return fmt.Errorf("parsing --since: %w", err)
		}
		m, err := MetricsCalc.Calculate(since)
		if err != nil {
			return fmt.Errorf("calculating metrics: %w", err)
		}

		report := metricsReport{Since: since, Log: m}
		if Agent != nil {
			report.Live = &liveMetrics{
				Tick:         Agent.TickCount(),
				ActiveGoals:  len(Agent.ActiveGoals()),
				Words:        Agent.Lexicon().Len(),
				ConceptNodes: Agent.Graph().Len(),
			}
		}

		if metricsJSON {
			data, err := json.MarshalIndent(report, "", "  ")
			if err != nil {
				return fmt.Errorf("formatting metrics as JSON: %w", err)
			}
			fmt.Println(string(data))
			return nil
		}
		printMetrics(report)
		return nil
	},
}

func printMetrics(r metricsReport) {
	m := r.Log
	fmt.Printf("Since %s\n\n", r.Since.Format("2006-01-02 15:04"))
	rows := []struct {
		label string
		n     int
	}{
		{"Events recorded", m.EventCount},
		{"Goals created", m.GoalsCreated},
		{"Goals completed", m.GoalsCompleted},
		{"Goals failed", m.GoalsFailed},
		{"Goals abandoned", m.GoalsAbandoned},
		{"Questions asked", m.QuestionsAsked},
		{"Words taught", m.WordsTaught},
		{"Reflection passes", m.ReflectionPasses},
	}
	for _, row := range rows {
		fmt.Printf("  %-24s %d\n", row.label+":", row.n)
	}
	if ended := m.GoalsCompleted + m.GoalsFailed + m.GoalsAbandoned; ended > 0 {
		fmt.Printf("  %-24s %.0f%%\n", "Completion rate:", 100*float64(m.GoalsCompleted)/float64(ended))
	}

	printCounts("Goals by kind:", m.GoalsByKind)
	printCounts("Words by source:", m.TaughtBySource)

	if m.OldestEvent != nil && m.NewestEvent != nil {
		fmt.Printf("\n  Events span %s to %s\n", m.OldestEvent.Format(time.RFC3339), m.NewestEvent.Format(time.RFC3339))
	}
	if l := r.Live; l != nil {
		fmt.Printf("\nNow (tick %d)\n", l.Tick)
		fmt.Printf("  %-24s %d\n", "Active goals:", l.ActiveGoals)
		fmt.Printf("  %-24s %d\n", "Words known:", l.Words)
		fmt.Printf("  %-24s %d\n", "Concept nodes:", l.ConceptNodes)
	}
}

// printCounts prints a titled breakdown in key order.
func printCounts(title string, counts map[string]int) {
	if len(counts) == 0 {
		return
	}
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	fmt.Printf("\n  %s\n", title)
	for _, k := range keys {
		fmt.Printf("    %-20s %d\n", k+":", counts[k])
	}
}

func init() {
	metricsCmd.Flags().BoolVar(&metricsJSON, "json", false, "Output metrics as JSON")
	metricsCmd.Flags().StringVar(&metricsSince, "since", observability.DefaultWindow, "Look-back window (e.g. 2w, 7d, 24h, 90m)")
	rootCmd.AddCommand(metricsCmd)
}
