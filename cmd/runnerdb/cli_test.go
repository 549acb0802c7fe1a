package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type cliTestEnv struct {
	baseDir    string
	configPath string
	dataDir    string
	exportDir  string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	homeDir := filepath.Join(base, "home")
	if err := os.MkdirAll(homeDir, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", homeDir)
	t.Setenv("RUNNERDB_DATA_DIR", "")

	env := &cliTestEnv{
		baseDir:    base,
		configPath: filepath.Join(base, "runnerdb.toml"),
		dataDir:    filepath.Join(base, "data"),
		exportDir:  filepath.Join(base, "exports"),
	}
	content := fmt.Sprintf("[paths]\ndata_dir = %q\nlog_dir = %q\nexport_dir = %q\n\n[logging]\nlevel = \"error\"\n",
		env.dataDir, filepath.Join(base, "logs"), env.exportDir)
	if err := os.WriteFile(env.configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return env
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}

func writeRows(t *testing.T, dir string) string {
	t.Helper()
	rows := `[
  {"first_name": "John", "last_name": "Smith", "birth_year": 1990, "sex": "M", "club": "Quantico Orienteering Club"},
  {"first_name": "Jon", "last_name": "Smith", "birth_year": 1990, "club": "Quantico Orienteering Club"},
  {"first_name": "Alice", "last_name": "Brown", "birth_year": 1985, "sex": "F", "club": "Backwoods OC"},
  {"first_name": "", "last_name": "Nobody"}
]`
	path := filepath.Join(dir, "rows.json")
	if err := os.WriteFile(path, []byte(rows), 0o644); err != nil {
		t.Fatalf("write rows: %v", err)
	}
	return path
}

func TestImportListAndScan(t *testing.T) {
	env := setupCLITestEnv(t)
	rowsPath := writeRows(t, env.baseDir)

	out, _, err := runCLI(t, []string{"--json", "import", rowsPath}, env.configPath)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	var result struct {
		Imported int `json:"imported"`
		Created  int `json:"created"`
		Skipped  int `json:"skipped"`
	}
	if err := json.Unmarshal([]byte(out), &result); err != nil {
		t.Fatalf("decode import result %q: %v", out, err)
	}
	if result.Imported != 3 || result.Created != 3 || result.Skipped != 1 {
		t.Fatalf("unexpected import result %+v", result)
	}

	out, _, err = runCLI(t, []string{"--json", "runners", "list"}, env.configPath)
	if err != nil {
		t.Fatalf("runners list: %v", err)
	}
	var runners []struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal([]byte(out), &runners); err != nil {
		t.Fatalf("decode runners: %v", err)
	}
	if len(runners) != 3 {
		t.Fatalf("expected 3 runners, got %d", len(runners))
	}

	out, _, err = runCLI(t, []string{"--json", "duplicates", "scan", "--threshold", "80"}, env.configPath)
	if err != nil {
		t.Fatalf("duplicates scan: %v", err)
	}
	var pairs []struct {
		RunnerID1 string  `json:"runner_id_1"`
		RunnerID2 string  `json:"runner_id_2"`
		Score     float64 `json:"similarity_score"`
	}
	if err := json.Unmarshal([]byte(out), &pairs); err != nil {
		t.Fatalf("decode pairs: %v", err)
	}
	if len(pairs) != 1 {
		t.Fatalf("expected one candidate pair, got %+v", pairs)
	}
	if pairs[0].RunnerID1 != "smith_john_1990" || pairs[0].RunnerID2 != "smith_jon_1990" || pairs[0].Score != 100 {
		t.Fatalf("unexpected pair %+v", pairs[0])
	}

	out, _, err = runCLI(t, []string{"duplicates", "ignore", "smith_john_1990", "smith_jon_1990"}, env.configPath)
	if err != nil {
		t.Fatalf("duplicates ignore: %v", err)
	}
	requireContains(t, out, "different runners")

	out, _, err = runCLI(t, []string{"duplicates", "scan"}, env.configPath)
	if err != nil {
		t.Fatalf("duplicates scan after ignore: %v", err)
	}
	requireContains(t, out, "No duplicate candidates")
}

func TestRunnersSearchTable(t *testing.T) {
	env := setupCLITestEnv(t)
	rowsPath := writeRows(t, env.baseDir)
	if _, _, err := runCLI(t, []string{"import", rowsPath}, env.configPath); err != nil {
		t.Fatalf("import: %v", err)
	}

	out, _, err := runCLI(t, []string{"runners", "search", "smi"}, env.configPath)
	if err != nil {
		t.Fatalf("runners search: %v", err)
	}
	requireContains(t, out, "smith_john_1990")
	requireContains(t, out, "smith_jon_1990")
	if strings.Contains(out, "brown_alice_1985") {
		t.Fatalf("search for smi matched Alice Brown:\n%s", out)
	}
}

func TestClubAliasAndMerge(t *testing.T) {
	env := setupCLITestEnv(t)
	rowsPath := writeRows(t, env.baseDir)
	if _, _, err := runCLI(t, []string{"import", rowsPath}, env.configPath); err != nil {
		t.Fatalf("import: %v", err)
	}

	out, _, err := runCLI(t, []string{"alias", "add", "QOC", "Quantico Orienteering Club"}, env.configPath)
	if err != nil {
		t.Fatalf("alias add: %v", err)
	}
	requireContains(t, out, `"QOC" maps to club "Quantico Orienteering Club"`)

	if _, _, err := runCLI(t, []string{"alias", "add", "XYZ", "No Such Club"}, env.configPath); err == nil {
		t.Fatal("expected alias to an unknown club to fail")
	}

	if _, _, err := runCLI(t, []string{"clubs", "merge", "Backwoods OC", "Quantico Orienteering Club"}, env.configPath); err != nil {
		t.Fatalf("clubs merge: %v", err)
	}
	out, _, err = runCLI(t, []string{"--json", "runners", "list", "--club", "Quantico Orienteering Club"}, env.configPath)
	if err != nil {
		t.Fatalf("runners list: %v", err)
	}
	var runners []struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal([]byte(out), &runners); err != nil {
		t.Fatalf("decode runners: %v", err)
	}
	if len(runners) != 3 {
		t.Fatalf("expected all 3 runners in the merged club, got %d", len(runners))
	}
}

func TestExportAndRestore(t *testing.T) {
	env := setupCLITestEnv(t)
	rowsPath := writeRows(t, env.baseDir)
	if _, _, err := runCLI(t, []string{"import", rowsPath}, env.configPath); err != nil {
		t.Fatalf("import: %v", err)
	}

	target := filepath.Join(env.baseDir, "snapshot.json")
	out, _, err := runCLI(t, []string{"export", "--output", target}, env.configPath)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	requireContains(t, out, "Exported 3 runners")

	if _, _, err := runCLI(t, []string{"runners", "delete", "brown_alice_1985"}, env.configPath); err != nil {
		t.Fatalf("runners delete: %v", err)
	}

	if _, _, err := runCLI(t, []string{"restore", target}, env.configPath); err == nil {
		t.Fatal("expected restore without --yes to fail")
	}
	out, _, err = runCLI(t, []string{"restore", "--yes", target}, env.configPath)
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	requireContains(t, out, "3 runners")

	out, _, err = runCLI(t, []string{"runners", "show", "brown_alice_1985"}, env.configPath)
	if err != nil {
		t.Fatalf("runners show after restore: %v", err)
	}
	requireContains(t, out, "Alice")
}

func TestExportDefaultsToExportDir(t *testing.T) {
	env := setupCLITestEnv(t)
	if _, _, err := runCLI(t, []string{"export", "--label", "spring meet"}, env.configPath); err != nil {
		t.Fatalf("export: %v", err)
	}
	matches, err := filepath.Glob(filepath.Join(env.exportDir, "runnerdb-*-spring-meet.json"))
	if err != nil {
		t.Fatalf("glob: %v", err)
	}
	if len(matches) != 1 {
		t.Fatalf("expected one export file, got %v", matches)
	}
}

func TestConfigInitAndValidate(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"config", "validate"}, env.configPath)
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "Configuration valid")
	requireContains(t, out, filepath.Join(env.dataDir, "runners.db"))

	target := filepath.Join(t.TempDir(), "config.toml")
	out, _, err = runCLI(t, []string{"config", "init", "--path", target}, "")
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}

	if _, _, err := runCLI(t, []string{"config", "init", "--path", target}, ""); err == nil {
		t.Fatal("expected init to refuse overwriting without --overwrite")
	}
}

func TestDoctorReportsChecks(t *testing.T) {
	env := setupCLITestEnv(t)
	out, _, err := runCLI(t, []string{"--json", "doctor"}, env.configPath)
	if err != nil {
		t.Fatalf("doctor: %v\n%s", err, out)
	}
	var checks []doctorCheck
	if err := json.Unmarshal([]byte(out), &checks); err != nil {
		t.Fatalf("decode checks: %v", err)
	}
	if len(checks) != 4 {
		t.Fatalf("expected 4 checks, got %+v", checks)
	}
	for _, c := range checks {
		if !c.Passed {
			t.Fatalf("check %s failed: %s", c.Name, c.Detail)
		}
	}
}

func TestUnknownClubReturnsError(t *testing.T) {
	env := setupCLITestEnv(t)
	_, _, err := runCLI(t, []string{"clubs", "rename", "Nowhere", "Somewhere"}, env.configPath)
	if err == nil {
		t.Fatal("expected rename of an unknown club to fail")
	}
}
