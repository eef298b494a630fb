package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/valter-silva-au/ai-curious-brain/pkg/models"
	"gopkg.in/yaml.v3"
)

// ConceptsFileName is the concept graph file under the base directory.
const ConceptsFileName = "concepts.yaml"

// ConceptGraphFile is the on-disk layout of the concept graph.
type ConceptGraphFile struct {
	Version string               `yaml:"version"`
	Nodes   []models.ConceptNode `yaml:"nodes"`
}

// ConceptStore loads and saves concept graph nodes.
type ConceptStore interface {
	Load() ([]models.ConceptNode, error)
	Save(nodes []models.ConceptNode) error
}

type fileConceptStore struct {
	basePath string
}

// NewConceptStore creates a ConceptStore backed by concepts.yaml.
func NewConceptStore(basePath string) ConceptStore {
	return &fileConceptStore{basePath: basePath}
}

func (s *fileConceptStore) filePath() string {
	return filepath.Join(s.basePath, ConceptsFileName)
}

func (s *fileConceptStore) Load() ([]models.ConceptNode, error) {
	data, err := os.ReadFile(s.filePath())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("loading concepts: %w", err)
	}
	var cf ConceptGraphFile
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return nil, fmt.Errorf("loading concepts: parsing YAML: %w", err)
	}
	return cf.Nodes, nil
}

func (s *fileConceptStore) Save(nodes []models.ConceptNode) error {
	if err := os.MkdirAll(s.basePath, 0o750); err != nil {
		return fmt.Errorf("saving concepts: creating directory: %w", err)
	}
	sorted := make([]models.ConceptNode, len(nodes))
	copy(sorted, nodes)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })

	data, err := yaml.Marshal(&ConceptGraphFile{Version: "1.0", Nodes: sorted})
	if err != nil {
		return fmt.Errorf("saving concepts: marshaling YAML: %w", err)
	}
	if err := writeFileAtomic(s.filePath(), data); err != nil {
		return fmt.Errorf("saving concepts: %w", err)
	}
	return nil
}
