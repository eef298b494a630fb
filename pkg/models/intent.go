package models

// IntentKind tags the variant carried by an Intent.
type IntentKind string

const (
	IntentCommand    IntentKind = "command"
	IntentQuery      IntentKind = "query"
	IntentTeach      IntentKind = "teach"
	IntentSocial     IntentKind = "social"
	IntentUnresolved IntentKind = "unresolved"
)

// QueryKind names the question a Query intent asks.
type QueryKind string

const (
	QueryFind      QueryKind = "find"
	QueryVerify    QueryKind = "verify"
	QueryWhere     QueryKind = "where"
	QueryInventory QueryKind = "inventory"
	QueryKnowledge QueryKind = "knowledge"
)

// Intent is the structured classification of one parsed utterance. Only the
// fields belonging to Kind are meaningful.
type Intent struct {
	Kind IntentKind `yaml:"kind" json:"kind"`

	// Command
	Verb string `yaml:"verb,omitempty" json:"verb,omitempty"`
	// Query
	Query QueryKind `yaml:"query,omitempty" json:"query,omitempty"`
	// Command and Query
	Args []string `yaml:"args,omitempty" json:"args,omitempty"`

	// Teach
	Word       string   `yaml:"word,omitempty" json:"word,omitempty"`
	WordType   WordType `yaml:"word_type,omitempty" json:"word_type,omitempty"`
	Expression string   `yaml:"expression,omitempty" json:"expression,omitempty"`

	// Social
	Social string `yaml:"social,omitempty" json:"social,omitempty"`

	// Unresolved
	Tokens []string `yaml:"tokens,omitempty" json:"tokens,omitempty"`

	// Priority overrides the configured default goal priority when non-zero.
	Priority int `yaml:"priority,omitempty" json:"priority,omitempty"`
}

// CommandIntent builds a Command{verb, args} intent.
func CommandIntent(verb string, args ...string) Intent {
	return Intent{Kind: IntentCommand, Verb: verb, Args: args}
}

// QueryIntent builds a Query{kind, args} intent.
func QueryIntent(kind QueryKind, args ...string) Intent {
	return Intent{Kind: IntentQuery, Query: kind, Args: args}
}

// TeachIntent builds a Teach{word, word_type, expression} intent.
func TeachIntent(word string, wordType WordType, expression string) Intent {
	return Intent{Kind: IntentTeach, Word: word, WordType: wordType, Expression: expression}
}

// SocialIntent builds a Social{kind} intent.
func SocialIntent(kind string) Intent {
	return Intent{Kind: IntentSocial, Social: kind}
}

// UnresolvedIntent builds an Unresolved{tokens} intent.
func UnresolvedIntent(tokens ...string) Intent {
	return Intent{Kind: IntentUnresolved, Tokens: tokens}
}

// ResponseKind classifies what the router did with an intent.
type ResponseKind string

const (
	ResponseAnswer        ResponseKind = "answer"
	ResponseGoal          ResponseKind = "goal"
	ResponseTaught        ResponseKind = "taught"
	ResponseSocial        ResponseKind = "social"
	ResponseClarification ResponseKind = "clarification"
)

// Response is returned synchronously for every dispatched intent.
type Response struct {
	Kind    ResponseKind `yaml:"kind" json:"kind"`
	Text    string       `yaml:"text" json:"text"`
	GoalIDs []string     `yaml:"goal_ids,omitempty" json:"goal_ids,omitempty"`

	// Cause is set for clarification responses.
	Cause error `yaml:"-" json:"-"`
}
