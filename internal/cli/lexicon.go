package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/valter-silva-au/ai-curious-brain/pkg/models"
)

var (
	lexiconJSON   bool
	lexiconSource string
)

var lexiconCmd = &cobra.Command{
	Use:   "lexicon",
	Short: "List the words the agent knows",
	Long: `List every lexicon entry with its word type, meaning and where it came
from: the built-in curriculum, a teaching, or the learner.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireAgent(); err != nil {
			return err
		}
		var entries []models.LexiconEntry
		for _, e := range Agent.Lexicon().Entries() {
			if lexiconSource != "" && e.Source != lexiconSource {
				continue
			}
			entries = append(entries, e)
		}

		if lexiconJSON {
			data, err := json.MarshalIndent(entries, "", "  ")
			if err != nil {
				return fmt.Errorf("formatting lexicon as JSON: %w", err)
			}
			fmt.Println(string(data))
			return nil
		}

		if len(entries) == 0 {
			fmt.Println("No words.")
			return nil
		}
		fmt.Printf("%-16s %-10s %-12s %-5s %s\n", "WORD", "TYPE", "SOURCE", "SEEN", "MEANING")
		for _, e := range entries {
			fmt.Printf("%-16s %-10s %-12s %-5d %s\n", e.Word, e.WordType, e.Source, e.ObservationCount, e.Expression)
		}
		fmt.Printf("\n%d word(s)\n", len(entries))
		return nil
	},
}

var conceptsJSON bool

var conceptsCmd = &cobra.Command{
	Use:   "concepts [concept]",
	Short: "Inspect the concept graph",
	Long: `Without arguments, list every concept node with its observation count and
confidence. With a concept name, list the concepts it is linked to, strongest
first.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireAgent(); err != nil {
			return err
		}
		if len(args) == 1 {
			return printRelated(args[0])
		}

		nodes := Agent.Graph().Nodes()
		if conceptsJSON {
			data, err := json.MarshalIndent(nodes, "", "  ")
			if err != nil {
				return fmt.Errorf("formatting concepts as JSON: %w", err)
			}
			fmt.Println(string(data))
			return nil
		}
		if len(nodes) == 0 {
			fmt.Println("The concept graph is empty.")
			return nil
		}
		fmt.Printf("%-16s %-10s %-6s %-10s %s\n", "CONCEPT", "TYPE", "SEEN", "CONFIDENCE", "EDGES")
		for _, n := range nodes {
			fmt.Printf("%-16s %-10s %-6d %-10.2f %d\n", n.Name, n.WordType, n.ObservationCount, n.Confidence, len(n.Edges))
		}
		return nil
	},
}

func printRelated(name string) error {
	if !Agent.Graph().Has(name) {
		return fmt.Errorf("unknown concept %q", name)
	}
	related := Agent.ConceptsRelatedTo(name)
	if conceptsJSON {
		if related == nil {
			related = []models.RelatedConcept{}
		}
		data, err := json.MarshalIndent(related, "", "  ")
		if err != nil {
			return fmt.Errorf("formatting related concepts as JSON: %w", err)
		}
		fmt.Println(string(data))
		return nil
	}
	if len(related) == 0 {
		fmt.Printf("%s is not linked to anything yet.\n", name)
		return nil
	}
	fmt.Printf("Related to %s:\n", name)
	for _, r := range related {
		fmt.Printf("  %-16s %.3f\n", r.Concept, r.Weight)
	}
	return nil
}

func init() {
	lexiconCmd.Flags().BoolVar(&lexiconJSON, "json", false, "Output the lexicon as JSON")
	lexiconCmd.Flags().StringVar(&lexiconSource, "source", "", "Only list words from this source (curriculum, taught, learner)")
	conceptsCmd.Flags().BoolVar(&conceptsJSON, "json", false, "Output as JSON")
	rootCmd.AddCommand(lexiconCmd, conceptsCmd)
}
