package core

import "github.com/valter-silva-au/ai-curious-brain/pkg/models"

// Action labels the router understands.
const (
	LabelTake    = "TAKE"
	LabelVerify  = "VERIFY"
	LabelCreate  = "CREATE"
	LabelDestroy = "DESTROY"
	LabelGive    = "GIVE"
	LabelOpen    = "OPEN"
	LabelClose   = "CLOSE"
	LabelPut     = "PUT"
)

// Curriculum is the starter vocabulary seeded into an empty lexicon.
func Curriculum() []models.LexiconEntry {
	entries := []models.LexiconEntry{
		{Word: "red", WordType: models.WordProperty, Expression: "color == 'red'"},
		{Word: "blue", WordType: models.WordProperty, Expression: "color == 'blue'"},
		{Word: "green", WordType: models.WordProperty, Expression: "color == 'green'"},
		{Word: "box", WordType: models.WordNoun, Expression: "shape == 'box'"},
		{Word: "circle", WordType: models.WordNoun, Expression: "shape == 'circle'"},
		{Word: "sphere", WordType: models.WordNoun, Expression: "shape == 'sphere'"},
		{Word: "bigger", WordType: models.WordRelation, Expression: "a.size > b.size"},

		{Word: "take", WordType: models.WordAction, Expression: LabelTake},
		{Word: "grab", WordType: models.WordAction, Expression: LabelTake},
		{Word: "get", WordType: models.WordAction, Expression: LabelTake},
		{Word: "verify", WordType: models.WordAction, Expression: LabelVerify},
		{Word: "check", WordType: models.WordAction, Expression: LabelVerify},
		{Word: "create", WordType: models.WordAction, Expression: LabelCreate},
		{Word: "destroy", WordType: models.WordAction, Expression: LabelDestroy},
		{Word: "give", WordType: models.WordAction, Expression: LabelGive},
		{Word: "open", WordType: models.WordAction, Expression: LabelOpen},
		{Word: "close", WordType: models.WordAction, Expression: LabelClose},
		{Word: "put", WordType: models.WordAction, Expression: LabelPut},

		{Word: "hello", WordType: models.WordSocial, Expression: "GREETING"},
		{Word: "hi", WordType: models.WordSocial, Expression: "GREETING"},
		{Word: "thanks", WordType: models.WordSocial, Expression: "THANKS"},
		{Word: "bye", WordType: models.WordSocial, Expression: "FAREWELL"},

		{Word: "it", WordType: models.WordPronoun, Expression: "REFERENT"},
		{Word: "object", WordType: models.WordConcept, Expression: "THING"},
		{Word: "thing", WordType: models.WordConcept, Expression: "THING"},
	}
	for i := range entries {
		entries[i].Source = models.SourceCurriculum
	}
	return entries
}

// functionWords are grammar words that never carry content and are never
// looked up.
var functionWords = []string{
	"a", "an", "the", "is", "as", "to", "from", "in", "into", "on", "of",
	"and", "or", "not", "what", "where", "when", "why", "how", "do", "does",
	"did", "have", "has", "had", "will", "would", "could", "should", "can",
	"may", "might", "must", "i", "you", "me", "my", "your", "his", "her",
	"its", "our", "their", "this", "that", "these", "those", "here", "there",
	"now", "then", "if", "else", "while", "for", "with", "without", "please",
}
