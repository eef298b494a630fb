package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/valter-silva-au/ai-curious-brain/pkg/models"
	"gopkg.in/yaml.v3"
)

// LexiconFileName is the YAML lexicon under the base directory.
const LexiconFileName = "lexicon.yaml"

// LexiconFile is the on-disk layout of the YAML lexicon.
type LexiconFile struct {
	Version string                `yaml:"version"`
	Entries []models.LexiconEntry `yaml:"entries"`
}

// LexiconStore loads and saves lexicon entries. core.Lexicon consumes it
// through its own narrower interface.
type LexiconStore interface {
	Load() ([]models.LexiconEntry, error)
	Save(entries []models.LexiconEntry) error
}

type fileLexiconStore struct {
	basePath string
}

// NewLexiconStore creates a LexiconStore backed by lexicon.yaml in the given
// base directory.
func NewLexiconStore(basePath string) LexiconStore {
	return &fileLexiconStore{basePath: basePath}
}

func (s *fileLexiconStore) filePath() string {
	return filepath.Join(s.basePath, LexiconFileName)
}

// Load returns the stored entries. A missing file is an empty lexicon.
func (s *fileLexiconStore) Load() ([]models.LexiconEntry, error) {
	data, err := os.ReadFile(s.filePath())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("loading lexicon: %w", err)
	}

	var lf LexiconFile
	if err := yaml.Unmarshal(data, &lf); err != nil {
		return nil, fmt.Errorf("loading lexicon: parsing YAML: %w", err)
	}
	return lf.Entries, nil
}

// Save replaces the file with entries sorted by word.
func (s *fileLexiconStore) Save(entries []models.LexiconEntry) error {
	if err := os.MkdirAll(s.basePath, 0o750); err != nil {
		return fmt.Errorf("saving lexicon: creating directory: %w", err)
	}
	sorted := make([]models.LexiconEntry, len(entries))
	copy(sorted, entries)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Word < sorted[j].Word })

	data, err := yaml.Marshal(&LexiconFile{Version: "1.0", Entries: sorted})
	if err != nil {
		return fmt.Errorf("saving lexicon: marshaling YAML: %w", err)
	}
	if err := writeFileAtomic(s.filePath(), data); err != nil {
		return fmt.Errorf("saving lexicon: %w", err)
	}
	return nil
}

// writeFileAtomic replaces path with data via a temp file in the same
// directory.
func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("setting permissions: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}
