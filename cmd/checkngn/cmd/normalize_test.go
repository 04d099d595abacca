package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/checkngn/checkngn/internal/config"
	"github.com/checkngn/checkngn/internal/domain/action"
)

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.SetDefaults()
	return cfg
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNormalizeCmd_Registered(t *testing.T) {
	found := false
	for _, cmd := range rootCmd.Commands() {
		if cmd.Name() == "normalize" {
			found = true
			break
		}
	}
	if !found {
		t.Error("normalize command not registered with rootCmd")
	}
}

func TestNormalizeCmd_FlagDefaults(t *testing.T) {
	output, err := normalizeCmd.Flags().GetString("output")
	if err != nil {
		t.Fatalf("failed to get output flag: %v", err)
	}
	if output != "" {
		t.Errorf("output default = %q, want empty (config decides)", output)
	}

	flatten, err := normalizeCmd.Flags().GetBool("flatten-nested")
	if err != nil {
		t.Fatalf("failed to get flatten-nested flag: %v", err)
	}
	if flatten {
		t.Error("flatten-nested default = true, want false")
	}
}

func TestNormalizeCmd_TooManyArgs(t *testing.T) {
	if err := normalizeCmd.Args(normalizeCmd, []string{"a.yaml", "b.yaml"}); err == nil {
		t.Error("normalize accepted two rule files")
	}
}

func TestNormalize_Descriptor(t *testing.T) {
	var out bytes.Buffer
	req := normalizeRequest{
		descriptor: `["put_on_sale", {"percent": 25}]`,
		out:        &out,
	}
	if err := normalize(context.Background(), testConfig(), req, testLogger()); err != nil {
		t.Fatalf("normalize() error = %v", err)
	}

	var got []action.Record
	if err := json.Unmarshal(out.Bytes(), &got); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out.String())
	}
	if len(got) != 1 || got[0].Action != "put_on_sale" || got[0].Params["percent"] != float64(25) {
		t.Errorf("output = %#v", got)
	}
}

func TestNormalize_DescriptorInvalid(t *testing.T) {
	req := normalizeRequest{descriptor: "42", out: io.Discard}
	err := normalize(context.Background(), testConfig(), req, testLogger())
	if !errors.Is(err, action.ErrInvalidActionDescriptor) {
		t.Errorf("error = %v, want ErrInvalidActionDescriptor", err)
	}
}

func TestNormalize_RuleFileStdinYAML(t *testing.T) {
	cfg := testConfig()
	cfg.Output = "yaml"

	var out bytes.Buffer
	req := normalizeRequest{
		path:  "-",
		stdin: strings.NewReader("- name: r\n  actions: [notify, {action: log}]\n"),
		out:   &out,
	}
	if err := normalize(context.Background(), cfg, req, testLogger()); err != nil {
		t.Fatalf("normalize() error = %v", err)
	}

	var got []struct {
		Name    string `yaml:"name"`
		Actions []struct {
			Action string                 `yaml:"action"`
			Params map[string]interface{} `yaml:"params"`
		} `yaml:"actions"`
	}
	if err := yaml.Unmarshal(out.Bytes(), &got); err != nil {
		t.Fatalf("output is not YAML: %v\n%s", err, out.String())
	}
	if len(got) != 1 || got[0].Name != "r" || len(got[0].Actions) != 2 {
		t.Fatalf("output = %#v", got)
	}
	if got[0].Actions[1].Action != "log" {
		t.Errorf("second action = %q, want log", got[0].Actions[1].Action)
	}
}

func TestNormalize_NonStringKeysEncodeAsJSON(t *testing.T) {
	var out bytes.Buffer
	req := normalizeRequest{
		descriptor: "{action: a, params: {x: {1: y}, list: [{true: z}]}}",
		out:        &out,
	}
	if err := normalize(context.Background(), testConfig(), req, testLogger()); err != nil {
		t.Fatalf("normalize() error = %v", err)
	}

	var got []action.Record
	if err := json.Unmarshal(out.Bytes(), &got); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out.String())
	}
	nested, ok := got[0].Params["x"].(map[string]interface{})
	if !ok || nested["1"] != "y" {
		t.Errorf("params x = %#v, want {\"1\": \"y\"}", got[0].Params["x"])
	}
}

func TestNormalize_RuleConditionsWithNonStringKeys(t *testing.T) {
	var out bytes.Buffer
	req := normalizeRequest{
		path:  "-",
		stdin: strings.NewReader("- conditions: {any: [{5: five}]}\n  actions: notify\n"),
		out:   &out,
	}
	if err := normalize(context.Background(), testConfig(), req, testLogger()); err != nil {
		t.Fatalf("normalize() error = %v", err)
	}
	if !strings.Contains(out.String(), `"5": "five"`) {
		t.Errorf("conditions not encoded with string keys:\n%s", out.String())
	}
}

func TestNormalize_LogsRuleSource(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))

	path := filepath.Join(t.TempDir(), "rules.yaml")
	if err := os.WriteFile(path, []byte("- actions: notify\n"), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	req := normalizeRequest{path: path, out: io.Discard}
	if err := normalize(context.Background(), testConfig(), req, logger); err != nil {
		t.Fatalf("normalize() error = %v", err)
	}
	if !strings.Contains(logs.String(), "path="+path) {
		t.Errorf("log output missing rule file path:\n%s", logs.String())
	}
}

func TestNormalize_NestedPolicyFromConfig(t *testing.T) {
	doc := "- actions: [a, [b, c, d]]\n"

	req := normalizeRequest{path: "-", stdin: strings.NewReader(doc), out: io.Discard}
	if err := normalize(context.Background(), testConfig(), req, testLogger()); err == nil {
		t.Error("nested list accepted with default reject policy")
	}

	cfg := testConfig()
	cfg.Normalizer.NestedLists = "flatten"
	var out bytes.Buffer
	req = normalizeRequest{path: "-", stdin: strings.NewReader(doc), out: &out}
	if err := normalize(context.Background(), cfg, req, testLogger()); err != nil {
		t.Fatalf("normalize() with flatten error = %v", err)
	}
	if got := strings.Count(out.String(), `"action"`); got != 4 {
		t.Errorf("flattened output has %d records, want 4\n%s", got, out.String())
	}
}

func TestNormalize_StrictIdentifiers(t *testing.T) {
	cfg := testConfig()
	cfg.Normalizer.StrictIdentifiers = true

	req := normalizeRequest{descriptor: `""`, out: io.Discard}
	if err := normalize(context.Background(), cfg, req, testLogger()); err == nil {
		t.Error("empty identifier accepted in strict mode")
	}
}

func TestNormalize_MetricsTextfile(t *testing.T) {
	cfg := testConfig()
	cfg.Metrics.Textfile = filepath.Join(t.TempDir(), "checkngn.prom")

	req := normalizeRequest{descriptor: "[a, b]", out: io.Discard}
	if err := normalize(context.Background(), cfg, req, testLogger()); err != nil {
		t.Fatalf("normalize() error = %v", err)
	}

	data, err := os.ReadFile(cfg.Metrics.Textfile)
	if err != nil {
		t.Fatalf("metrics file not written: %v", err)
	}
	if !strings.Contains(string(data), "checkngn_records_total 2") {
		t.Errorf("metrics file missing records total:\n%s", data)
	}
}

func TestWriteOutput_UnsupportedFormat(t *testing.T) {
	if err := writeOutput(io.Discard, "toml", []action.Record{}); err == nil {
		t.Error("writeOutput accepted an unknown format")
	}
}
