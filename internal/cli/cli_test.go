package cli

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"github.com/matzehuels/chartsnap/pkg/config"
	"github.com/matzehuels/chartsnap/pkg/errors"
	chartio "github.com/matzehuels/chartsnap/pkg/io"
	"github.com/matzehuels/chartsnap/pkg/manifest"
)

const testChart = `<svg xmlns="http://www.w3.org/2000/svg" width="200" height="120">
  <g transform="translate(20,20)">
    <g class="x-axis" transform="translate(0,80)"><path class="domain" d="M0,0H160"/></g>
    <g class="chart-vis-group"><path class="line" d="M0,60L80,30L160,10" stroke="steelblue"/></g>
  </g>
</svg>`

func writeTestConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

// runCLI executes the root command with args, capturing command output in out.
func runCLI(t *testing.T, out io.Writer, args ...string) error {
	t.Helper()
	c := New(io.Discard, LogInfo)
	root := c.RootCommand()
	root.SetOut(out)
	root.SetErr(io.Discard)
	root.SetArgs(args)
	return root.Execute()
}

func TestExportFlagsOverrideConfig(t *testing.T) {
	var f exportFlags
	cmd := &cobra.Command{Use: "x"}
	f.register(cmd)
	if err := cmd.Flags().Parse([]string{"--mode", "filled", "--quality", "80"}); err != nil {
		t.Fatal(err)
	}

	cfg := config.Default()
	cfg.Format = "svg"
	cfg.Layers = "both"

	opts, err := f.options(cmd, cfg)
	if err != nil {
		t.Fatal(err)
	}
	if opts.Format != "svg" || opts.Layers != "both" {
		t.Errorf("config values lost: %+v", opts)
	}
	if opts.Mode != "filled" || opts.Quality != 80 {
		t.Errorf("flags not applied: %+v", opts)
	}
	if f.dir(cfg) != cfg.OutputDir {
		t.Errorf("dir = %q", f.dir(cfg))
	}
}

func TestExportFlagsInvalid(t *testing.T) {
	var f exportFlags
	cmd := &cobra.Command{Use: "x"}
	f.register(cmd)
	if err := cmd.Flags().Parse([]string{"--format", "bmp"}); err != nil {
		t.Fatal(err)
	}
	if _, err := f.options(cmd, config.Default()); !errors.Is(err, errors.ErrCodeInvalidFormat) {
		t.Errorf("got %v, want INVALID_FORMAT", err)
	}
}

func TestParseDims(t *testing.T) {
	dims, err := parseDims([]string{"chart=bar,line", " trend = linear , exponential "})
	if err != nil {
		t.Fatal(err)
	}
	if len(dims) != 2 || dims[1].Name != "trend" || len(dims[1].Values) != 2 || dims[1].Values[1] != "exponential" {
		t.Errorf("dims = %+v", dims)
	}

	for _, bad := range []string{"chart", "=bar", "chart="} {
		if _, err := parseDims([]string{bad}); !errors.Is(err, errors.ErrCodeInvalidPlan) {
			t.Errorf("parseDims(%q): got %v", bad, err)
		}
	}
}

func TestManifestConfigDefaults(t *testing.T) {
	got := manifestConfig(manifest.Config{Backend: "none"}, "xlsx", "out")
	if got.Backend != "xlsx" || got.Path != filepath.Join("out", "manifest.xlsx") {
		t.Errorf("got %+v", got)
	}
	got = manifestConfig(manifest.Config{Backend: "jsonl", Path: "runs.jsonl"}, "", "out")
	if got.Path != "runs.jsonl" {
		t.Errorf("explicit path replaced: %+v", got)
	}
}

func TestInputStem(t *testing.T) {
	for in, want := range map[string]string{
		"chart.svg":          "chart",
		"dir/bar-linear.png": "bar-linear",
		"noext":              "noext",
	} {
		if got := inputStem(in); got != want {
			t.Errorf("inputStem(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestExportCommand(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "line-linear.svg")
	if err := os.WriteFile(input, []byte(testChart), 0o644); err != nil {
		t.Fatal(err)
	}
	outDir := filepath.Join(dir, "out")
	cfgPath := writeTestConfig(t, "[cache]\nbackend = \"none\"\n")

	var out bytes.Buffer
	err := runCLI(t, &out, "--config", cfgPath, "export", input,
		"--format", "svg", "--with-filled", "-o", outDir, "--json")
	if err != nil {
		t.Fatalf("export: %v", err)
	}

	var res chartio.Result
	if err := json.Unmarshal(out.Bytes(), &res); err != nil {
		t.Fatalf("decode %q: %v", out.String(), err)
	}
	if len(res.Artifacts) != 2 {
		t.Fatalf("artifacts = %+v", res.Artifacts)
	}
	filled, err := os.ReadFile(filepath.Join(outDir, "line-linear-filled.svg"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(filled), "L 160,80 L 0,80 Z") {
		t.Error("filled companion lacks the synthesized area")
	}
	if _, err := os.Stat(filepath.Join(outDir, "line-linear.svg")); err != nil {
		t.Error(err)
	}
}

func TestExportCommandMissingInput(t *testing.T) {
	cfgPath := writeTestConfig(t, "")
	err := runCLI(t, io.Discard, "--config", cfgPath, "export", filepath.Join(t.TempDir(), "nope.svg"), "--no-cache")
	if !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("got %v, want FILE_NOT_FOUND", err)
	}
}

func TestBatchCommand(t *testing.T) {
	outDir := t.TempDir()
	cfgPath := writeTestConfig(t, `
settle_delay = "0s"
pause = "0s"
prefix = "snap"

[cache]
backend = "none"

[manifest]
backend = "jsonl"
`)

	err := runCLI(t, io.Discard, "--config", cfgPath, "batch",
		"--dim", "chart=bar,line", "--dim", "trend=linear",
		"--format", "svg", "--no-tui", "-o", outDir,
		"--report", filepath.Join(outDir, "report.json"))
	if err != nil {
		t.Fatalf("batch: %v", err)
	}

	for _, name := range []string{"snap-bar-linear.svg", "snap-line-linear.svg"} {
		if _, err := os.Stat(filepath.Join(outDir, name)); err != nil {
			t.Errorf("missing %s: %v", name, err)
		}
	}
	entries, err := manifest.ReadJSONL(filepath.Join(outDir, "manifest.jsonl"))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 {
		t.Errorf("manifest has %d entries, want 2", len(entries))
	}
	if _, err := os.Stat(filepath.Join(outDir, "report.json")); err != nil {
		t.Errorf("report not written: %v", err)
	}
}

func TestBatchCommandNeedsDimensions(t *testing.T) {
	cfgPath := writeTestConfig(t, "")
	err := runCLI(t, io.Discard, "--config", cfgPath, "batch", "--no-tui", "--no-cache", "-o", t.TempDir())
	if !errors.Is(err, errors.ErrCodeInvalidPlan) {
		t.Errorf("got %v, want INVALID_PLAN", err)
	}
}

func TestPlanCommandJSON(t *testing.T) {
	cfgPath := writeTestConfig(t, `
prefix = ""

[[dimension]]
name = "chart"
values = ["bar", "line"]

[[dimension]]
name = "points"
values = ["5", "7", "9"]
`)
	var out bytes.Buffer
	if err := runCLI(t, &out, "--config", cfgPath, "plan", "--json"); err != nil {
		t.Fatal(err)
	}

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 6 {
		t.Fatalf("got %d items, want 6:\n%s", len(lines), out.String())
	}
	var first planItem
	if err := json.Unmarshal([]byte(lines[0]), &first); err != nil {
		t.Fatal(err)
	}
	if first.Stem != "bar-5" || first.Coords["points"] != "5" {
		t.Errorf("first item = %+v", first)
	}
}

func TestConfigInitRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chartsnap", "config.toml")
	if err := runCLI(t, io.Discard, "--config", path, "config", "init"); err != nil {
		t.Fatal(err)
	}
	if _, err := config.Load(path); err != nil {
		t.Fatalf("written default config does not load: %v", err)
	}
	if err := runCLI(t, io.Discard, "--config", path, "config", "init"); err == nil {
		t.Error("init should refuse to overwrite without --force")
	}

	var out bytes.Buffer
	if err := runCLI(t, &out, "--config", path, "config", "show"); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), `format = "png"`) {
		t.Errorf("config show output:\n%s", out.String())
	}
}
