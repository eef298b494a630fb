package storage

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/valter-silva-au/ai-curious-brain/pkg/models"
	"gopkg.in/yaml.v3"
)

// StateFileName holds the scheduler state between processes.
const StateFileName = "agent_state.yaml"

// StateStore loads and saves the agent's goals, history and event buffer.
type StateStore interface {
	// Load returns nil state and nil error when nothing was saved yet.
	Load() (*models.AgentState, error)
	Save(state models.AgentState) error
}

type fileStateStore struct {
	basePath string
}

// NewStateStore creates a StateStore backed by agent_state.yaml.
func NewStateStore(basePath string) StateStore {
	return &fileStateStore{basePath: basePath}
}

func (s *fileStateStore) filePath() string {
	return filepath.Join(s.basePath, StateFileName)
}

func (s *fileStateStore) Load() (*models.AgentState, error) {
	data, err := os.ReadFile(s.filePath())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("loading agent state: %w", err)
	}
	var st models.AgentState
	if err := yaml.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("loading agent state: parsing YAML: %w", err)
	}
	return &st, nil
}

func (s *fileStateStore) Save(state models.AgentState) error {
	if err := os.MkdirAll(s.basePath, 0o750); err != nil {
		return fmt.Errorf("saving agent state: creating directory: %w", err)
	}
	data, err := yaml.Marshal(&state)
	if err != nil {
		return fmt.Errorf("saving agent state: marshaling YAML: %w", err)
	}
	if err := writeFileAtomic(s.filePath(), data); err != nil {
		return fmt.Errorf("saving agent state: %w", err)
	}
	return nil
}
