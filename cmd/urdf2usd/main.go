package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/newton-physics/urdf-usd-converter/internal/config"
	"github.com/newton-physics/urdf-usd-converter/internal/convert"
)

var (
	// Global flags
	outputDir  string
	configPath string
	packages   []string
	comment    string
	verbose    bool

	// Logger
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "urdf2usd [robot.urdf]",
	Short: "Convert a URDF robot description to a USD stage",
	Long: `urdf2usd parses a URDF robot description and authors an equivalent
USD stage: one rigid body per link, physics joints with axis alignment and
limits, visual and collision geometry, materials, and mass properties from
the inertia tensor's principal axes.

Content the URDF schema does not define is preserved on the stage as
namespaced custom attributes instead of being dropped.`,
	Args: cobra.ExactArgs(1),
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg := zap.NewProductionConfig()
		if verbose {
			cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = cfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: runConvert,
}

func runConvert(cmd *cobra.Command, args []string) error {
	cfg := config.Default()
	if configPath != "" {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
	}
	if comment != "" {
		cfg.Comment = comment
	}
	for _, spec := range packages {
		name, path, ok := strings.Cut(spec, "=")
		if !ok {
			return fmt.Errorf("invalid --packages entry %q: expected name=path", spec)
		}
		if cfg.Packages == nil {
			cfg.Packages = map[string]string{}
		}
		cfg.Packages[name] = path
	}

	converter := convert.New(convert.Params{
		OutputDir:     outputDir,
		Comment:       cfg.Comment,
		Packages:      cfg.Packages,
		MetersPerUnit: cfg.Output.MetersPerUnit,
		UpAxis:        cfg.Output.UpAxis,
	}, logger)

	result, err := converter.Convert(args[0])
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), result.OutputFile)
	if len(result.Warnings) > 0 {
		fmt.Fprintf(cmd.ErrOrStderr(), "%d warning(s); rerun with --verbose for details\n", len(result.Warnings))
	}
	return nil
}

func init() {
	rootCmd.Flags().StringVarP(&outputDir, "output", "o", ".", "output directory for the authored stage")
	rootCmd.Flags().StringVar(&configPath, "config", "", "YAML config file")
	rootCmd.Flags().StringArrayVar(&packages, "packages", nil, "package map entry name=path for package:// references (repeatable)")
	rootCmd.Flags().StringVar(&comment, "comment", "", "comment embedded in the stage metadata")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
