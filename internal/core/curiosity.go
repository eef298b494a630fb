package core

import (
	"strconv"
	"strings"

	"github.com/valter-silva-au/ai-curious-brain/pkg/models"
)

// ObjectRefPrefix marks a token that names a world object by id, e.g.
// "#obj-0003". Such tokens are never vocabulary.
const ObjectRefPrefix = "#"

// CuriosityDetector finds the tokens of an intent the agent cannot resolve.
type CuriosityDetector struct {
	lexicon       *Lexicon
	functionWords map[string]struct{}
}

// NewCuriosityDetector creates a detector over lexicon. extra extends the
// built-in set of grammar function words.
func NewCuriosityDetector(lexicon *Lexicon, extra []string) *CuriosityDetector {
	fw := make(map[string]struct{}, len(functionWords)+len(extra))
	for _, w := range functionWords {
		fw[w] = struct{}{}
	}
	for _, w := range extra {
		fw[NormalizeWord(w)] = struct{}{}
	}
	return &CuriosityDetector{lexicon: lexicon, functionWords: fw}
}

// IsFunctionWord reports whether w is grammar, not content.
func (d *CuriosityDetector) IsFunctionWord(w string) bool {
	_, ok := d.functionWords[NormalizeWord(w)]
	return ok
}

// IsContent reports whether token should be resolved against the lexicon.
func (d *CuriosityDetector) IsContent(token string) bool {
	t := NormalizeWord(token)
	if t == "" || d.IsFunctionWord(t) || strings.HasPrefix(t, ObjectRefPrefix) {
		return false
	}
	if _, err := strconv.ParseFloat(t, 64); err == nil {
		return false
	}
	return true
}

// ContentWords filters tokens down to normalized content words, keeping
// order. Lexicon words typed as pronouns or articles are dropped too.
func (d *CuriosityDetector) ContentWords(tokens []string) []string {
	var out []string
	for _, t := range tokens {
		if !d.IsContent(t) {
			continue
		}
		t = NormalizeWord(t)
		if e, ok := d.lexicon.Get(t); ok && (e.WordType == models.WordPronoun || e.WordType == models.WordArticle) {
			continue
		}
		out = append(out, t)
	}
	return out
}

// Detect returns the sorted set of unresolved tokens of intent. Unresolved
// intents return their own tokens; teach and social intents never carry
// unknown vocabulary.
func (d *CuriosityDetector) Detect(intent models.Intent) []string {
	switch intent.Kind {
	case models.IntentUnresolved:
		set := make(map[string]struct{}, len(intent.Tokens))
		for _, t := range intent.Tokens {
			if t = NormalizeWord(t); t != "" {
				set[t] = struct{}{}
			}
		}
		return sortedSet(set)
	case models.IntentCommand:
		return d.Unresolved(append([]string{intent.Verb}, intent.Args...))
	case models.IntentQuery:
		return d.Unresolved(intent.Args)
	default:
		return nil
	}
}

// Unresolved returns the content words of tokens the lexicon does not know,
// sorted and deduplicated.
func (d *CuriosityDetector) Unresolved(tokens []string) []string {
	return d.lexicon.Unknown(d.ContentWords(tokens))
}
