package observability

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/valter-silva-au/ai-curious-brain/internal/core"
	"github.com/valter-silva-au/ai-curious-brain/pkg/models"
)

func TestPromMetrics_Counters(t *testing.T) {
	m := NewPromMetrics()

	m.TickCompleted(core.TickGoal)
	m.TickCompleted(core.TickGoal)
	m.TickCompleted(core.TickReflection)
	m.GoalFinished(models.GoalUnderstand, models.GoalCompleted)
	m.WordTaught(models.SourceTaught)
	m.WordTaught(models.SourceLearner)
	m.WordTaught(models.SourceTaught)
	m.ReflectionPass(4, 1)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.ticks.WithLabelValues("goal")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ticks.WithLabelValues("reflection")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.goalsFinished.WithLabelValues("understand", "completed")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.wordsTaught.WithLabelValues("taught")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.reflectionPasses))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.eventsProcessed))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.eventsSkipped))
}

func TestPromMetrics_Gauges(t *testing.T) {
	m := NewPromMetrics()
	m.SetSizes(3, 120, 45)
	m.SetSizes(2, 121, 47)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.activeGoals))
	assert.Equal(t, 121.0, testutil.ToFloat64(m.lexiconWords))
	assert.Equal(t, 47.0, testutil.ToFloat64(m.conceptNodes))
}

func TestPromMetrics_Handler(t *testing.T) {
	m := NewPromMetrics()
	m.TickCompleted(core.TickIdle)

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	text := string(body)
	assert.True(t, strings.Contains(text, `brain_ticks_total{kind="idle"} 1`), "missing tick counter in:\n%s", text)
	assert.Contains(t, text, "go_goroutines")
}

func TestPromMetrics_PrivateRegistries(t *testing.T) {
	// Two exporters must not collide on registration.
	a, b := NewPromMetrics(), NewPromMetrics()
	a.WordTaught("taught")
	assert.Equal(t, 0.0, testutil.ToFloat64(b.wordsTaught.WithLabelValues("taught")))
	n, err := testutil.GatherAndCount(a.Registry(), "brain_words_taught_total")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
