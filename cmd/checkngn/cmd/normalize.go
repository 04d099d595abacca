package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/checkngn/checkngn/internal/adapter/outbound/rulefile"
	"github.com/checkngn/checkngn/internal/config"
	"github.com/checkngn/checkngn/internal/domain/action"
	"github.com/checkngn/checkngn/internal/domain/rule"
	"github.com/checkngn/checkngn/internal/metrics"
	"github.com/checkngn/checkngn/internal/service"
)

var (
	normalizeDescriptor    string
	normalizeOutput        string
	normalizeFlattenNested bool
	normalizeStrict        bool
	normalizeMetricsFile   string
)

var normalizeCmd = &cobra.Command{
	Use:   "normalize [rule-file]",
	Short: "Normalize the actions of a rule file or a single descriptor",
	Long: `Normalize rule actions into {action, params} records.

With a rule file (YAML or JSON, "-" or no argument for stdin), every rule's
actions are normalized and the rules are printed with their conditions
untouched. With --descriptor, a single action descriptor is normalized.

Examples:
  checkngn normalize rules.yaml
  checkngn normalize --descriptor '["put_on_sale", {"percent": 25}]'
  checkngn normalize --output yaml --flatten-nested < rules.json`,
	Args: cobra.MaximumNArgs(1),
	RunE: runNormalize,
}

func init() {
	normalizeCmd.Flags().StringVar(&normalizeDescriptor, "descriptor", "", "normalize a single descriptor (YAML or JSON) instead of a rule file")
	normalizeCmd.Flags().StringVarP(&normalizeOutput, "output", "o", "", "output format: json or yaml (default from config, json)")
	normalizeCmd.Flags().BoolVar(&normalizeFlattenNested, "flatten-nested", false, "flatten nested action lists instead of rejecting them")
	normalizeCmd.Flags().BoolVar(&normalizeStrict, "strict", false, "reject actions with an empty identifier")
	normalizeCmd.Flags().StringVar(&normalizeMetricsFile, "metrics-file", "", "write Prometheus metrics to this .prom file")
	rootCmd.AddCommand(normalizeCmd)
}

func runNormalize(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfigRaw()
	if err != nil {
		return err
	}
	applyNormalizeFlags(cmd, cfg)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	logger := newLogger(cfg.Log, cmd.ErrOrStderr())
	if configFile := config.ConfigFileUsed(); configFile != "" {
		logger.Debug("loaded config", "file", configFile)
	}

	path := rulefile.StdinPath
	if len(args) == 1 {
		path = args[0]
	}

	req := normalizeRequest{
		descriptor: normalizeDescriptor,
		path:       path,
		stdin:      cmd.InOrStdin(),
		out:        cmd.OutOrStdout(),
	}
	return normalize(cmd.Context(), cfg, req, logger)
}

// applyNormalizeFlags copies explicitly set flags over config values.
func applyNormalizeFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("output") {
		cfg.Output = normalizeOutput
	}
	if flags.Changed("flatten-nested") {
		cfg.Normalizer.NestedLists = action.NestedReject.String()
		if normalizeFlattenNested {
			cfg.Normalizer.NestedLists = action.NestedFlatten.String()
		}
	}
	if flags.Changed("strict") {
		cfg.Normalizer.StrictIdentifiers = normalizeStrict
	}
	if flags.Changed("metrics-file") {
		cfg.Metrics.Textfile = normalizeMetricsFile
	}
}

// normalizeRequest describes one invocation of the normalize command.
type normalizeRequest struct {
	descriptor string // inline descriptor; empty means read rules from path
	path       string
	stdin      io.Reader
	out        io.Writer
}

// normalize wires config into the action service, runs it, and writes the result.
func normalize(ctx context.Context, cfg *config.Config, req normalizeRequest, logger *slog.Logger) error {
	policy, err := cfg.NestedListPolicy()
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	opts := []service.ActionServiceOption{
		service.WithNormalizer(action.NewNormalizer(action.WithNestedLists(policy))),
		service.WithRecordCacheSize(cfg.Normalizer.CacheSize),
		service.WithMetrics(metrics.NewMetrics(reg)),
	}
	if cfg.Normalizer.StrictIdentifiers {
		opts = append(opts, service.WithStrictIdentifiers())
	}
	svc := service.NewActionService(logger, opts...)

	var result interface{}
	if req.descriptor != "" {
		var desc interface{}
		if err := yaml.Unmarshal([]byte(req.descriptor), &desc); err != nil {
			return fmt.Errorf("failed to parse descriptor: %w", err)
		}
		records, err := svc.Normalize(ctx, desc)
		if err != nil {
			return err
		}
		result = records
	} else {
		src := rulefile.NewFileSource(req.path, rulefile.WithStdin(req.stdin))
		logger.Debug("loading rules", "path", src.Path())
		rules, err := svc.LoadAndNormalize(ctx, src)
		if err != nil {
			return err
		}
		result = rules
	}

	if err := writeOutput(req.out, cfg.Output, result); err != nil {
		return err
	}

	if cfg.Metrics.Textfile != "" {
		if err := metrics.WriteTextfile(cfg.Metrics.Textfile, reg); err != nil {
			return fmt.Errorf("failed to write metrics: %w", err)
		}
		logger.Debug("metrics written", "path", cfg.Metrics.Textfile)
	}
	return nil
}

// writeOutput encodes v as JSON (indented) or YAML.
func writeOutput(w io.Writer, format string, v interface{}) error {
	switch format {
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("failed to encode output: %w", err)
		}
		return enc.Close()
	case "json", "":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(jsonValue(v)); err != nil {
			return fmt.Errorf("failed to encode output: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("unsupported output format %q", format)
	}
}

// jsonValue rewrites the map[interface{}]interface{} values that YAML decoding
// produces for non-string keys (e.g. {1: y}) into string-keyed maps.
// encoding/json rejects interface-keyed maps.
func jsonValue(v interface{}) interface{} {
	switch typed := v.(type) {
	case []action.Record:
		out := make([]action.Record, len(typed))
		for i, r := range typed {
			out[i] = action.Record{Action: r.Action, Params: stringKeyed(r.Params)}
		}
		return out
	case []rule.NormalizedRule:
		out := make([]rule.NormalizedRule, len(typed))
		for i, r := range typed {
			out[i] = rule.NormalizedRule{
				Name:       r.Name,
				Conditions: jsonValue(r.Conditions),
				Actions:    jsonValue(r.Actions).([]action.Record),
			}
		}
		return out
	case map[string]interface{}:
		return stringKeyed(typed)
	case map[interface{}]interface{}:
		out := make(map[string]interface{}, len(typed))
		for k, val := range typed {
			out[fmt.Sprint(k)] = jsonValue(val)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(typed))
		for i, val := range typed {
			out[i] = jsonValue(val)
		}
		return out
	default:
		return v
	}
}

func stringKeyed(m map[string]interface{}) map[string]interface{} {
	if m == nil {
		return nil
	}
	out := make(map[string]interface{}, len(m))
	for k, val := range m {
		out[k] = jsonValue(val)
	}
	return out
}
