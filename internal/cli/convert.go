package cli

import (
	"fmt"
	"maps"
	"slices"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/robert-malhotra/mat2img/internal/config"
	"github.com/robert-malhotra/mat2img/internal/convert"
	"github.com/robert-malhotra/mat2img/internal/imageio"
	"github.com/robert-malhotra/mat2img/internal/logger"
	"github.com/robert-malhotra/mat2img/internal/record"
)

var convertConfigFile string

var convertCmd = &cobra.Command{
	Use:   "convert",
	Short: "Convert a directory of MAT-files to images",
	Long: `Reads every matching MAT-file of the input directory, normalizes the cjdata
image to 8 bits and writes it to <output>/<label>/<name><ext>. Files that
cannot be converted are logged and skipped.

Settings are layered: defaults, the --config TOML file, MAT2IMG_ environment
variables, then flags.`,
	Args: cobra.NoArgs,
	RunE: runConvert,
}

// convertFlagKeys maps flag names to config keys.
var convertFlagKeys = map[string]string{
	"input":           "input_dir",
	"output":          "output_dir",
	"pattern":         "pattern",
	"workers":         "workers",
	"format":          "format",
	"quality":         "quality",
	"constant-policy": "constant_policy",
	"skip-existing":   "skip_existing",
	"log-level":       "log.level",
	"log-json":        "log.json",
	"log-source":      "log.source",
}

func init() {
	f := convertCmd.Flags()
	f.StringP("input", "i", "", "directory holding the MAT-files")
	f.StringP("output", "o", "", "root directory of the label folders")
	f.String("pattern", convert.DefaultPattern, "glob selecting input files")
	f.IntP("workers", "w", 1, "number of files converted concurrently")
	f.String("format", string(imageio.JPEG), "output format: jpeg, png, bmp or tiff")
	f.Int("quality", imageio.DefaultQuality, "JPEG quality, 1 to 100")
	f.String("constant-policy", string(record.PolicyZero), "constant images: zero or reject")
	f.Bool("skip-existing", false, "keep outputs that already exist")
	f.StringVarP(&convertConfigFile, "config", "c", "", "TOML config file")
	rootCmd.AddCommand(convertCmd)
}

func runConvert(cmd *cobra.Command, _ []string) error {
	flags, err := changedFlags(cmd.Flags())
	if err != nil {
		return err
	}
	cfg, err := config.Load(fs, config.LoadOptions{File: convertConfigFile, Flags: flags})
	if err != nil {
		return err
	}

	logCfg := cfg.Logger()
	logCfg.Output = cmd.ErrOrStderr()
	ctx := logger.ContextWithLogger(cmd.Context(), logger.NewLogger(logCfg))

	summary, err := convert.NewDriver(cfg.Convert(), fs).Run(ctx)
	if err != nil {
		return fmt.Errorf("conversion failed: %w", err)
	}
	printSummary(cmd, summary)
	return nil
}

// changedFlags returns the explicitly set flags by config key.
func changedFlags(fl *pflag.FlagSet) (map[string]any, error) {
	out := make(map[string]any)
	var err error
	fl.Visit(func(f *pflag.Flag) {
		key, ok := convertFlagKeys[f.Name]
		if !ok || err != nil {
			return
		}
		var v any
		switch f.Value.Type() {
		case "bool":
			v, err = strconv.ParseBool(f.Value.String())
		case "int":
			v, err = strconv.Atoi(f.Value.String())
		default:
			v = f.Value.String()
		}
		if err != nil {
			err = fmt.Errorf("flag --%s: %w", f.Name, err)
			return
		}
		out[key] = v
	})
	return out, err
}

func printSummary(cmd *cobra.Command, s *convert.Summary) {
	cmd.Printf("Run:         %s\n", s.RunID)
	cmd.Printf("Matched:     %d\n", s.Matched)
	cmd.Printf("Saved:       %d\n", s.Saved)
	cmd.Printf("Existing:    %d\n", s.Existing)
	cmd.Printf("Failed:      %d\n", s.Failed())
	cmd.Printf("Duration:    %s\n", s.Duration.Round(time.Millisecond))
	for _, label := range slices.Sorted(maps.Keys(s.PerLabel)) {
		cmd.Printf("  label %d: %d\n", label, s.PerLabel[label])
	}
	for _, kind := range slices.Sorted(maps.Keys(s.Failures)) {
		cmd.Printf("  %s: %d\n", kind, s.Failures[kind])
	}
	if s.Interrupted {
		cmd.Println("Interrupted before all files were processed.")
	}
}
