package integration

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/valter-silva-au/ai-curious-brain/internal/core"
	"github.com/valter-silva-au/ai-curious-brain/pkg/models"
)

// Inbox item statuses.
const (
	InboxPending   = "pending"
	InboxProcessed = "processed"
	InboxRejected  = "rejected"
)

// Dispatcher routes one intent. *core.Agent satisfies it.
type Dispatcher interface {
	Dispatch(intent models.Intent) (models.Response, error)
}

// UtteranceParser turns the free-form words of an inbox body into an
// intent. A Dispatcher that also implements it gets bodies parsed instead of
// dispatched word for word.
type UtteranceParser interface {
	Utterance(words []string) models.Intent
}

// InboxConfig holds the paths for the file-based intent inbox.
type InboxConfig struct {
	BaseDir string // Parent directory; inbox/ and outbox/ are created beneath it.
	Logger  *zap.Logger
	// Debounce is how long Watch waits for writes to settle. Zero means 200ms.
	Debounce time.Duration
}

// Inbox reads intents from markdown files with YAML frontmatter in
// baseDir/inbox/ and writes replies and step artifacts to baseDir/outbox/.
type Inbox struct {
	inboxDir  string
	outboxDir string
	logger    *zap.Logger
	debounce  time.Duration
	now       func() time.Time
}

var _ core.ArtifactSink = (*Inbox)(nil)

// InboxItem is one pending intent file.
type InboxItem struct {
	ID     string
	Path   string
	Intent models.Intent
	// Utterance holds the body words when the frontmatter carried no intent.
	Utterance []string
}

// intentFrontmatter is the YAML frontmatter of inbox and outbox files.
type intentFrontmatter struct {
	ID            string `yaml:"id"`
	Date          string `yaml:"date,omitempty"`
	Status        string `yaml:"status,omitempty"`
	models.Intent `yaml:",inline"`

	// Written back on processing.
	Response string   `yaml:"response,omitempty"`
	GoalIDs  []string `yaml:"goal_ids,omitempty"`
	Error    string   `yaml:"error,omitempty"`
}

// outboxFrontmatter is the YAML frontmatter of files the agent writes.
type outboxFrontmatter struct {
	ID        string   `yaml:"id"`
	Date      string   `yaml:"date"`
	Kind      string   `yaml:"kind"`
	InReplyTo string   `yaml:"in_reply_to,omitempty"`
	GoalID    string   `yaml:"goal_id,omitempty"`
	GoalIDs   []string `yaml:"goal_ids,omitempty"`
	Tokens    []string `yaml:"tokens,omitempty"`
}

// NewInbox creates the inbox and outbox directories under cfg.BaseDir.
func NewInbox(cfg InboxConfig) (*Inbox, error) {
	if cfg.BaseDir == "" {
		return nil, fmt.Errorf("creating inbox: base dir is empty")
	}
	inboxDir := filepath.Join(cfg.BaseDir, "inbox")
	outboxDir := filepath.Join(cfg.BaseDir, "outbox")
	for _, dir := range []string{inboxDir, outboxDir} {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("creating inbox directory %s: %w", dir, err)
		}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	debounce := cfg.Debounce
	if debounce <= 0 {
		debounce = 200 * time.Millisecond
	}
	return &Inbox{
		inboxDir:  inboxDir,
		outboxDir: outboxDir,
		logger:    logger,
		debounce:  debounce,
		now:       func() time.Time { return time.Now().UTC() },
	}, nil
}

// InboxDir returns the directory intents are read from.
func (b *Inbox) InboxDir() string { return b.inboxDir }

// OutboxDir returns the directory replies are written to.
func (b *Inbox) OutboxDir() string { return b.outboxDir }

// Fetch returns pending intents ordered by file name. Malformed files are
// logged and skipped.
func (b *Inbox) Fetch() ([]InboxItem, error) {
	entries, err := os.ReadDir(b.inboxDir)
	if err != nil {
		return nil, fmt.Errorf("reading inbox directory: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".md") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	var items []InboxItem
	for _, name := range names {
		path := filepath.Join(b.inboxDir, name)
		fm, body, err := readFrontmatter(path)
		if err != nil {
			b.logger.Warn("skipping malformed inbox file", zap.String("file", name), zap.Error(err))
			continue
		}
		if fm.Status != "" && fm.Status != InboxPending {
			continue
		}
		id := fm.ID
		if id == "" {
			id = strings.TrimSuffix(name, ".md")
		}
		intent := fm.Intent
		if intent.Kind == "" {
			intent.Kind = models.IntentUnresolved
		}
		item := InboxItem{ID: id, Path: path}
		if intent.Kind == models.IntentUnresolved && len(intent.Tokens) == 0 {
			item.Utterance = strings.Fields(strings.ToLower(body))
			intent.Tokens = item.Utterance
		}
		item.Intent = intent
		items = append(items, item)
	}
	return items, nil
}

// Process dispatches every pending intent, writes a reply for each to the
// outbox and marks the inbox file processed. Free-form bodies go through d's
// UtteranceParser when it has one. It returns how many intents
// were handled.
func (b *Inbox) Process(d Dispatcher) (int, error) {
	items, err := b.Fetch()
	if err != nil {
		return 0, err
	}
	parser, _ := d.(UtteranceParser)
	handled := 0
	for _, item := range items {
		if parser != nil && len(item.Utterance) > 0 {
			item.Intent = parser.Utterance(item.Utterance)
		}
		resp, derr := d.Dispatch(item.Intent)
		status := InboxProcessed
		if derr != nil {
			status = InboxRejected
			b.logger.Warn("inbox intent rejected", zap.String("id", item.ID), zap.Error(derr))
		} else if err := b.Reply(item.ID, resp); err != nil {
			return handled, err
		}
		if err := b.mark(item.Path, status, resp, derr); err != nil {
			return handled, err
		}
		handled++
		b.logger.Info("inbox intent processed",
			zap.String("id", item.ID),
			zap.String("kind", string(item.Intent.Kind)),
			zap.String("response", string(resp.Kind)),
		)
	}
	return handled, nil
}

// MarkProcessed sets the status of the inbox file for itemID to processed.
func (b *Inbox) MarkProcessed(itemID string) error {
	path, err := b.findInboxFile(itemID)
	if err != nil {
		return err
	}
	return b.mark(path, InboxProcessed, models.Response{}, nil)
}

func (b *Inbox) mark(path, status string, resp models.Response, dispatchErr error) error {
	fm, body, err := readFrontmatter(path)
	if err != nil {
		return fmt.Errorf("parsing frontmatter: %w", err)
	}
	fm.Status = status
	if resp.Text != "" {
		fm.Response = resp.Text
		fm.GoalIDs = resp.GoalIDs
	}
	if dispatchErr != nil {
		fm.Error = dispatchErr.Error()
	}
	content, err := renderFile(fm, body)
	if err != nil {
		return fmt.Errorf("rendering updated file: %w", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		return fmt.Errorf("writing updated inbox file: %w", err)
	}
	return nil
}

// Reply writes the synchronous response to an intent as outbox/<id>.reply.md.
func (b *Inbox) Reply(itemID string, resp models.Response) error {
	fm := outboxFrontmatter{
		ID:        itemID + ".reply",
		Date:      b.now().Format(time.RFC3339),
		Kind:      string(resp.Kind),
		InReplyTo: itemID,
		GoalIDs:   resp.GoalIDs,
	}
	return b.writeOutbox(fm, resp.Text)
}

// Emit writes a step artifact (a question or an answer) to the outbox.
func (b *Inbox) Emit(a models.Artifact) error {
	id := a.ID
	if id == "" {
		id = uuid.NewString()
	}
	date := a.Created
	if date.IsZero() {
		date = b.now()
	}
	fm := outboxFrontmatter{
		ID:     id,
		Date:   date.Format(time.RFC3339),
		Kind:   string(a.Kind),
		GoalID: a.GoalID,
		Tokens: a.Tokens,
	}
	return b.writeOutbox(fm, a.Text)
}

func (b *Inbox) writeOutbox(fm outboxFrontmatter, text string) error {
	if fm.ID == "" {
		return fmt.Errorf("sending to outbox: item ID is empty")
	}
	fmBytes, err := yaml.Marshal(fm)
	if err != nil {
		return fmt.Errorf("marshaling frontmatter: %w", err)
	}
	content := "---\n" + string(fmBytes) + "---\n\n" + text + "\n"
	if err := os.WriteFile(filepath.Join(b.outboxDir, fm.ID+".md"), []byte(content), 0o600); err != nil {
		return fmt.Errorf("writing outbox file: %w", err)
	}
	return nil
}

// Watch processes the inbox once, then again whenever markdown files in it
// are created or written, until ctx is cancelled.
func (b *Inbox) Watch(ctx context.Context, d Dispatcher) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating inbox watcher: %w", err)
	}
	defer watcher.Close()
	if err := watcher.Add(b.inboxDir); err != nil {
		return fmt.Errorf("watching %s: %w", b.inboxDir, err)
	}

	if _, err := b.Process(d); err != nil {
		b.logger.Error("processing inbox", zap.Error(err))
	}

	ticker := time.NewTicker(b.debounce)
	defer ticker.Stop()
	var dirtySince time.Time

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !strings.HasSuffix(ev.Name, ".md") {
				continue
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) != 0 {
				dirtySince = time.Now()
			}
		case werr, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			b.logger.Warn("inbox watcher error", zap.Error(werr))
		case <-ticker.C:
			if dirtySince.IsZero() || time.Since(dirtySince) < b.debounce {
				continue
			}
			dirtySince = time.Time{}
			if _, err := b.Process(d); err != nil {
				b.logger.Error("processing inbox", zap.Error(err))
			}
		}
	}
}

// findInboxFile locates an inbox file by item ID. It checks for ID.md first,
// then scans all files for a matching frontmatter ID.
func (b *Inbox) findInboxFile(itemID string) (string, error) {
	direct := filepath.Join(b.inboxDir, itemID+".md")
	if _, err := os.Stat(direct); err == nil {
		return direct, nil
	}

	entries, err := os.ReadDir(b.inboxDir)
	if err != nil {
		return "", fmt.Errorf("scanning inbox for item %s: %w", itemID, err)
	}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".md") {
			continue
		}
		path := filepath.Join(b.inboxDir, entry.Name())
		fm, _, err := readFrontmatter(path)
		if err != nil {
			continue
		}
		if fm.ID == itemID {
			return path, nil
		}
	}
	return "", fmt.Errorf("inbox item %q not found", itemID)
}

func readFrontmatter(path string) (intentFrontmatter, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return intentFrontmatter{}, "", fmt.Errorf("reading file %s: %w", path, err)
	}
	return parseFrontmatter(string(data))
}

// renderFile produces a markdown string with YAML frontmatter.
func renderFile(fm intentFrontmatter, body string) (string, error) {
	fmBytes, err := yaml.Marshal(fm)
	if err != nil {
		return "", fmt.Errorf("marshaling frontmatter: %w", err)
	}

	var sb strings.Builder
	sb.WriteString("---\n")
	sb.Write(fmBytes)
	sb.WriteString("---\n\n")
	sb.WriteString(body)

	return sb.String(), nil
}

// parseFrontmatter splits a markdown file into its YAML frontmatter and body.
// The frontmatter is delimited by "---" lines.
func parseFrontmatter(content string) (intentFrontmatter, string, error) {
	var fm intentFrontmatter

	if !strings.HasPrefix(content, "---\n") {
		return fm, content, fmt.Errorf("no frontmatter delimiter found")
	}

	rest := content[4:]
	idx := strings.Index(rest, "\n---\n")
	if idx < 0 {
		if strings.HasSuffix(rest, "\n---") {
			idx = len(rest) - 4
		} else {
			return fm, content, fmt.Errorf("no closing frontmatter delimiter found")
		}
	}

	fmStr := rest[:idx]
	body := ""
	if idx+5 <= len(rest) {
		body = strings.TrimLeft(rest[idx+5:], "\n")
	}

	if err := yaml.Unmarshal([]byte(fmStr), &fm); err != nil {
		return fm, body, fmt.Errorf("unmarshaling frontmatter: %w", err)
	}

	return fm, body, nil
}
