package investments

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeRule(t *testing.T, dir, name, source string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(source), 0o644))
}

func TestScreeningEngine_Evaluate(t *testing.T) {
	dir := t.TempDir()
	writeRule(t, dir, "large-amount.tengo", `
if amount >= 1000000 {
    note = "large check: verify source of funds"
    flag = true
}
`)
	writeRule(t, dir, "upi-proof.tengo", `
text := import("text")
if rail == "upi" && !text.has_prefix(proof, "upi-") {
    note = "upi proof missing reference prefix"
}
`)

	engine := NewScreeningEngine(dir)
	require.NoError(t, engine.Load())
	assert.Equal(t, 2, engine.RuleCount())

	t.Run("clean submission passes untouched", func(t *testing.T) {
		result := engine.Evaluate(context.Background(), &Investment{
			InvestorID: "user:vera", FounderID: "user:alice",
			Amount: 50000, Rail: RailUPI, Proof: "upi-ref-1",
		})
		assert.Empty(t, result.Note)
		assert.False(t, result.FlaggedForReview)
	})

	t.Run("large amount is flagged", func(t *testing.T) {
		result := engine.Evaluate(context.Background(), &Investment{
			InvestorID: "user:vera", FounderID: "user:alice",
			Amount: 2000000, Rail: RailUPI, Proof: "upi-ref-1",
		})
		assert.Equal(t, "large check: verify source of funds", result.Note)
		assert.True(t, result.FlaggedForReview)
	})

	t.Run("notes from multiple rules are joined", func(t *testing.T) {
		result := engine.Evaluate(context.Background(), &Investment{
			InvestorID: "user:vera", FounderID: "user:alice",
			Amount: 2000000, Rail: RailUPI, Proof: "bad",
		})
		assert.Equal(t, "large check: verify source of funds; upi proof missing reference prefix", result.Note)
		assert.True(t, result.FlaggedForReview)
	})
}

func TestScreeningEngine_BrokenRuleIsSkipped(t *testing.T) {
	dir := t.TempDir()
	writeRule(t, dir, "broken.tengo", `this is not tengo ((`)
	writeRule(t, dir, "works.tengo", `note = "checked"`)

	engine := NewScreeningEngine(dir)
	require.NoError(t, engine.Load())

	result := engine.Evaluate(context.Background(), &Investment{
		Amount: 1, Rail: RailUPI, Proof: "upi-x",
	})
	assert.Equal(t, "checked", result.Note, "a broken rule must not take the working ones down")
}

func TestScreeningEngine_EmptyDirDisablesScreening(t *testing.T) {
	engine := NewScreeningEngine("")
	require.NoError(t, engine.Load())
	assert.Equal(t, 0, engine.RuleCount())

	result := engine.Evaluate(context.Background(), &Investment{Amount: 1e9})
	assert.Empty(t, result.Note)
	assert.False(t, result.FlaggedForReview)
}

func TestScreeningEngine_ReloadPicksUpChanges(t *testing.T) {
	dir := t.TempDir()
	engine := NewScreeningEngine(dir)
	require.NoError(t, engine.Load())
	assert.Equal(t, 0, engine.RuleCount())

	// Simulates what the fsnotify watcher does on a directory change.
	writeRule(t, dir, "new.tengo", `flag = true`)
	require.NoError(t, engine.Load())
	assert.Equal(t, 1, engine.RuleCount())

	result := engine.Evaluate(context.Background(), &Investment{Amount: 1})
	assert.True(t, result.FlaggedForReview)
}
