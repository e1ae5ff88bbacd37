package investments

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/d5/tengo/v2"
	"github.com/d5/tengo/v2/stdlib"
	"github.com/fsnotify/fsnotify"
)

// ruleTimeout bounds a single rule's execution. A stuck rule must never
// hold up an investment submission.
const ruleTimeout = 100 * time.Millisecond

// ScreeningResult is what the rules decided about a submission.
type ScreeningResult struct {
	Note             string
	FlaggedForReview bool
}

// rule is one loaded screening script.
type rule struct {
	name   string
	source string
}

// ScreeningEngine runs operator-supplied Tengo rules against investment
// submissions. Rules live as *.tengo files in a directory and are
// hot-reloaded on change, so compliance can tighten checks without a
// deploy. Each rule sees the submission as input variables and may set
// `note` (string) and `flag` (bool); notes from multiple rules are joined.
//
// Screening is advisory: a rule error or timeout is logged and skipped,
// never surfaced to the submitting investor.
type ScreeningEngine struct {
	dir    string
	logger *slog.Logger

	mu    sync.RWMutex
	rules []rule
}

// NewScreeningEngine creates an engine over dir. An empty dir disables
// screening entirely.
func NewScreeningEngine(dir string) *ScreeningEngine {
	return &ScreeningEngine{
		dir:    dir,
		logger: slog.Default().With("service", "screening"),
	}
}

// Load reads the rule files from the directory. A missing directory is
// treated as "no rules".
func (e *ScreeningEngine) Load() error {
	if e.dir == "" {
		return nil
	}

	entries, err := os.ReadDir(e.dir)
	if err != nil {
		if os.IsNotExist(err) {
			e.setRules(nil)
			return nil
		}
		return err
	}

	var rules []rule
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".tengo") {
			continue
		}
		source, err := os.ReadFile(filepath.Join(e.dir, entry.Name()))
		if err != nil {
			e.logger.Error("Failed to read screening rule", "rule", entry.Name(), "error", err)
			continue
		}
		rules = append(rules, rule{name: entry.Name(), source: string(source)})
	}
	// Deterministic evaluation order.
	sort.Slice(rules, func(i, j int) bool { return rules[i].name < rules[j].name })

	e.setRules(rules)
	e.logger.Info("Screening rules loaded", "count", len(rules), "dir", e.dir)
	return nil
}

func (e *ScreeningEngine) setRules(rules []rule) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.rules = rules
}

// RuleCount returns the number of loaded rules.
func (e *ScreeningEngine) RuleCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.rules)
}

// Watch reloads the rules whenever the directory changes. It blocks until
// ctx is canceled, so run it in its own goroutine.
func (e *ScreeningEngine) Watch(ctx context.Context) error {
	if e.dir == "" {
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(e.dir); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			e.logger.Info("Screening rules changed, reloading", "event", event.Op.String())
			if err := e.Load(); err != nil {
				e.logger.Error("Failed to reload screening rules", "error", err)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			e.logger.Error("Screening rule watcher error", "error", err)
		}
	}
}

// Evaluate runs every rule against the submission and merges their output.
func (e *ScreeningEngine) Evaluate(ctx context.Context, inv *Investment) ScreeningResult {
	e.mu.RLock()
	rules := e.rules
	e.mu.RUnlock()

	var result ScreeningResult
	var notes []string

	for _, r := range rules {
		note, flagged, err := e.runRule(ctx, r, inv)
		if err != nil {
			e.logger.Warn("Screening rule failed, skipping", "rule", r.name, "error", err)
			continue
		}
		if note != "" {
			notes = append(notes, note)
		}
		if flagged {
			result.FlaggedForReview = true
		}
	}

	result.Note = strings.Join(notes, "; ")
	return result
}

func (e *ScreeningEngine) runRule(ctx context.Context, r rule, inv *Investment) (string, bool, error) {
	script := tengo.NewScript([]byte(r.source))
	script.SetImports(stdlib.GetModuleMap("math", "text", "fmt", "times"))

	// Input variables. Scripts may overwrite note/flag.
	_ = script.Add("amount", inv.Amount)
	_ = script.Add("rail", string(inv.Rail))
	_ = script.Add("proof", inv.Proof)
	_ = script.Add("investor_id", inv.InvestorID)
	_ = script.Add("founder_id", inv.FounderID)
	_ = script.Add("note", "")
	_ = script.Add("flag", false)

	runCtx, cancel := context.WithTimeout(ctx, ruleTimeout)
	defer cancel()

	compiled, err := script.RunContext(runCtx)
	if err != nil {
		return "", false, err
	}

	note, _ := compiled.Get("note").Value().(string)
	return note, compiled.Get("flag").Bool(), nil
}
