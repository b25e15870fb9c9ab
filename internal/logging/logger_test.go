package logging

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func resetState() {
	CloseAll()
	CloseAudit()
	logsDir = ""
	config = Config{}
	logLevel = LevelInfo
}

// TestAllCategoriesLog tests that every category creates a log file in debug mode
func TestAllCategoriesLog(t *testing.T) {
	resetState()
	defer resetState()

	dir := filepath.Join(t.TempDir(), "logs")
	if err := Initialize(dir, Config{DebugMode: true, Level: "debug"}); err != nil {
		t.Fatalf("Failed to initialize logging: %v", err)
	}

	categories := []Category{
		CategoryBoot, CategoryLint, CategoryWatch, CategoryCache, CategoryStore,
		CategoryAPI, CategoryAuth, CategoryLLM, CategoryImages,
	}
	for _, cat := range categories {
		if !IsCategoryEnabled(cat) {
			t.Errorf("Category %s should be enabled", cat)
		}
		l := Get(cat)
		l.Info("info for %s", cat)
		l.Debug("debug for %s", cat)
		l.Warn("warn for %s", cat)
		l.Error("error for %s", cat)
	}
	CloseAll()

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("Failed to read logs dir: %v", err)
	}
	for _, cat := range categories {
		found := false
		for _, e := range entries {
			if strings.HasSuffix(e.Name(), "_"+string(cat)+".log") {
				found = true
				content, _ := os.ReadFile(filepath.Join(dir, e.Name()))
				if !strings.Contains(string(content), "[DEBUG] debug for "+string(cat)) {
					t.Errorf("log for %s missing debug line: %q", cat, content)
				}
			}
		}
		if !found {
			t.Errorf("No log file found for category: %s", cat)
		}
	}
}

// TestDebugModeDisabled tests that no logs are created when debug_mode is false
func TestDebugModeDisabled(t *testing.T) {
	resetState()
	defer resetState()

	dir := filepath.Join(t.TempDir(), "logs")
	if err := Initialize(dir, Config{DebugMode: false, Level: "debug"}); err != nil {
		t.Fatalf("Failed to initialize logging: %v", err)
	}
	if IsDebugMode() {
		t.Error("Expected debug mode to be disabled")
	}

	Boot("should not be logged")
	Lint("should not be logged")
	Audit(AuditRecipeCreate, "user_1", "recipe_1", true, "")
	CloseAll()
	CloseAudit()

	if _, err := os.Stat(dir); !os.IsNotExist(err) {
		t.Errorf("logs directory should not exist in production mode, stat err=%v", err)
	}
}

func TestCategoryToggle(t *testing.T) {
	resetState()
	defer resetState()

	dir := filepath.Join(t.TempDir(), "logs")
	cfg := Config{
		DebugMode:  true,
		Level:      "info",
		Categories: map[string]bool{"lint": true, "api": false},
	}
	if err := Initialize(dir, cfg); err != nil {
		t.Fatalf("Failed to initialize logging: %v", err)
	}

	if !IsCategoryEnabled(CategoryLint) {
		t.Error("lint should be enabled")
	}
	if IsCategoryEnabled(CategoryAPI) {
		t.Error("api should be disabled")
	}
	if !IsCategoryEnabled(CategoryStore) {
		t.Error("unlisted categories default to enabled")
	}
}

func TestJSONFormatAndAudit(t *testing.T) {
	resetState()
	defer resetState()

	dir := filepath.Join(t.TempDir(), "logs")
	if err := Initialize(dir, Config{DebugMode: true, Level: "info", JSONFormat: true}); err != nil {
		t.Fatalf("Failed to initialize logging: %v", err)
	}

	Get(CategoryStore).StructuredLog("warn", "slow query", map[string]interface{}{"ms": 250})
	Audit(AuditRecipeDelete, "user_1", "recipe_abc", true, "")
	CloseAll()
	CloseAudit()

	matches, _ := filepath.Glob(filepath.Join(dir, "*_store.log"))
	if len(matches) != 1 {
		t.Fatalf("expected one store log, got %v", matches)
	}
	data, _ := os.ReadFile(matches[0])
	line := string(data)
	idx := strings.Index(line, "{")
	if idx < 0 {
		t.Fatalf("expected JSON entry, got %q", line)
	}
	var entry StructuredLogEntry
	if err := json.Unmarshal([]byte(strings.TrimSpace(line[idx:])), &entry); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if entry.Category != "store" || entry.Level != "warn" || entry.Message != "slow query" {
		t.Errorf("unexpected entry: %+v", entry)
	}

	audit, err := os.ReadFile(filepath.Join(dir, "audit.jsonl"))
	if err != nil {
		t.Fatalf("read audit: %v", err)
	}
	var ev AuditEvent
	if err := json.Unmarshal([]byte(strings.TrimSpace(string(audit))), &ev); err != nil {
		t.Fatalf("unmarshal audit: %v", err)
	}
	if ev.Type != AuditRecipeDelete || ev.Target != "recipe_abc" || !ev.Success {
		t.Errorf("unexpected audit event: %+v", ev)
	}
}

func TestLevelFiltering(t *testing.T) {
	resetState()
	defer resetState()

	dir := filepath.Join(t.TempDir(), "logs")
	if err := Initialize(dir, Config{DebugMode: true, Level: "warn"}); err != nil {
		t.Fatalf("Failed to initialize logging: %v", err)
	}
	l := Get(CategoryLint)
	l.Info("hidden")
	l.Warn("shown")
	CloseAll()

	matches, _ := filepath.Glob(filepath.Join(dir, "*_lint.log"))
	if len(matches) != 1 {
		t.Fatalf("expected one lint log, got %v", matches)
	}
	data, _ := os.ReadFile(matches[0])
	if strings.Contains(string(data), "hidden") {
		t.Error("info line should be filtered at warn level")
	}
	if !strings.Contains(string(data), "[WARN] shown") {
		t.Error("warn line should be written")
	}
}
