package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/valter-silva-au/ai-curious-brain/internal/observability"
)

var (
	alertsJSON     bool
	alertsSeverity string
)

var alertsCmd = &cobra.Command{
	Use:   "alerts",
	Short: "Show goals and questions that need attention",
	Long: `Replay the event log and report goals left waiting on teaching past the
configured threshold, more failed goals than allowed, and a backlog of
unanswered questions.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if AlertEngine == nil {
			return fmt.Errorf("alert engine not initialized (observability may be disabled)")
		}
		var want observability.AlertSeverity
		switch s := observability.AlertSeverity(strings.ToLower(alertsSeverity)); s {
		case "", observability.SeverityHigh, observability.SeverityMedium, observability.SeverityLow:
			want = s
		default:
			return fmt.Errorf("--severity must be high, medium or low, got %q", alertsSeverity)
		}

		all, err := AlertEngine.Evaluate()
		if err != nil {
			return fmt.Errorf("evaluating alerts: %w", err)
		}
		alerts := make([]observability.Alert, 0, len(all))
		for _, a := range all {
			if want == "" || a.Severity == want {
				alerts = append(alerts, a)
			}
		}

		if alertsJSON {
			data, err := json.MarshalIndent(alerts, "", "  ")
			if err != nil {
				return fmt.Errorf("formatting alerts as JSON: %w", err)
			}
			fmt.Println(string(data))
			return nil
		}
		if len(alerts) == 0 {
			fmt.Println("No active alerts.")
			return nil
		}
		fmt.Printf("%d active alert(s):\n\n", len(alerts))
		for _, a := range alerts {
			fmt.Printf("  %-8s %s\n", "["+strings.ToUpper(string(a.Severity))+"]", a.Message)
			fmt.Printf("  %-8s %s since %s\n\n", "", a.Condition, a.TriggeredAt.Format("2006-01-02 15:04 UTC"))
		}
		return nil
	},
}

func init() {
	alertsCmd.Flags().BoolVar(&alertsJSON, "json", false, "Output alerts as JSON")
	alertsCmd.Flags().StringVar(&alertsSeverity, "severity", "", "Only show alerts of this severity (high, medium, low)")
	rootCmd.AddCommand(alertsCmd)
}
