package core

import (
	"fmt"
	"testing"

	"pgregory.net/rapid"
)

// Feature: ai-curious-brain, Property 6: Configuration round trip
func TestConfigRoundTripProperty(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		name := rapid.StringMatching(`[a-z][a-z0-9]{0,10}`).Filter(func(s string) bool {
			switch s {
			case "world", "user", "null", "true", "false", "y", "n", "yes", "no", "on", "off":
				return false
			}
			return true
		}).Draw(rt, "name")
		every := rapid.IntRange(1, 50).Draw(rt, "every")
		maxSteps := rapid.IntRange(1, 200).Draw(rt, "maxSteps")
		depth := rapid.IntRange(1, 6).Draw(rt, "depth")
		budget := rapid.IntRange(0, 100).Draw(rt, "budget")
		backend := rapid.SampledFrom([]string{BackendYAML, BackendSQLite}).Draw(rt, "backend")
		deferQueries := rapid.Bool().Draw(rt, "defer")

		dir := t.TempDir()
		writeFile(t, dir, ".brainconfig", fmt.Sprintf(`
agent:
  name: %s
scheduler:
  reflection_every: %d
  max_steps: %d
cascade:
  max_depth: %d
  max_new_nodes: %d
lexicon:
  backend: %s
curiosity:
  defer_queries: %t
`, name, every, maxSteps, depth, budget, backend, deferQueries))

		cfg, err := NewConfigurationManager(dir).Load()
		if err != nil {
			rt.Fatalf("Load: %v", err)
		}
		if cfg.AgentName != name || cfg.Scheduler.ReflectionEvery != every || cfg.Scheduler.MaxSteps != maxSteps {
			rt.Fatalf("scalar fields not loaded: %+v", cfg)
		}
		if cfg.Cascade.MaxDepth != depth || cfg.Cascade.MaxNewNodes != budget {
			rt.Fatalf("cascade = %+v", cfg.Cascade)
		}
		if cfg.Lexicon.Backend != backend || cfg.Curiosity.DeferQueries != deferQueries {
			rt.Fatalf("backend/defer = %q/%v", cfg.Lexicon.Backend, cfg.Curiosity.DeferQueries)
		}
		if err := ValidateBrainConfig(cfg); err != nil {
			rt.Fatalf("generated config invalid: %v", err)
		}
	})
}
