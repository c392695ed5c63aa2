package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/andypohl/varona/internal/ensembl"
	"github.com/andypohl/varona/internal/maf"
	"github.com/andypohl/varona/internal/pipeline"
)

// configKeys are the settings shared between flags, VARONA_* environment
// variables and ~/.varona.yaml.
var configKeys = []string{
	"assembly", "maf", "chunk-size", "retries", "timeout",
	"no-vep", "vep-json", "vep-cache", "log-level",
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "varona <input-vcf> <output-csv>",
		Short: "Annotate VCF variants with local statistics and Ensembl VEP consequences",
		Long: `varona reads a Platypus-style VCF, derives per-variant statistics
(sequence depth, supporting reads, minor allele frequency) and joins them
with transcript consequences from the Ensembl VEP REST API into a CSV.

Use '-' as the input to read from stdin, or as the output to write to
stdout. Gzip-compressed inputs are detected automatically.`,
		Example: `  varona input.vcf annotated.csv
  varona --assembly GRCh37 --maf FR input.vcf.gz annotated.csv
  varona --no-vep input.vcf local-only.csv
  varona --vep-json responses.json.gz input.vcf annotated.csv
  varona --vep-cache ~/.varona/vep.db input.vcf annotated.csv`,
		Args: func(cmd *cobra.Command, args []string) error {
			if err := cobra.ExactArgs(2)(cmd, args); err != nil {
				return &usageError{err}
			}
			return nil
		},
		RunE:          runAnnotate,
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       fmt.Sprintf("%s (%s) built %s", version, commit, date),
	}

	flags := cmd.Flags()
	flags.String("assembly", "GRCh38", "Genome assembly: GRCh37 or GRCh38")
	flags.String("maf", "SAMPLES", "MAF strategy: SAMPLES, FR or BCFTOOLS")
	flags.Int("chunk-size", 200, "Variants per VEP request")
	flags.Int("retries", 3, "Retries after a rate-limited VEP request")
	flags.Duration("timeout", 300*time.Second, "Per-request timeout for the VEP API")
	flags.Bool("no-vep", false, "Skip remote annotation, leaving annotation columns empty")
	flags.String("vep-json", "", "Read VEP annotations from this JSON file instead of the API")
	flags.String("vep-cache", "", "DuckDB file caching fetched VEP annotations between runs")
	flags.String("log-level", "warn", "Log verbosity: debug, info, warn or error")

	for _, key := range configKeys {
		_ = viper.BindPFlag(key, flags.Lookup(key))
	}

	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &usageError{err}
	})

	cobra.OnInitialize(initConfig)

	cmd.AddCommand(newConfigCmd())
	return cmd
}

// initConfig loads ~/.varona.yaml and VARONA_* environment variables.
// Precedence: flags, then environment, then config file, then defaults.
func initConfig() {
	viper.SetEnvPrefix("VARONA")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	home, err := os.UserHomeDir()
	if err != nil {
		return
	}
	viper.AddConfigPath(home)
	viper.SetConfigName(".varona")
	viper.SetConfigType("yaml")
	_ = viper.ReadInConfig()
}

func runAnnotate(cmd *cobra.Command, args []string) error {
	assembly, err := ensembl.ParseAssembly(viper.GetString("assembly"))
	if err != nil {
		return &usageError{err}
	}
	method, err := maf.ParseMethod(viper.GetString("maf"))
	if err != nil {
		return &usageError{err}
	}
	logger, err := newLogger(viper.GetString("log-level"))
	if err != nil {
		return &usageError{err}
	}
	defer func() { _ = logger.Sync() }()

	return pipeline.Run(cmd.Context(), pipeline.Options{
		Input:     args[0],
		Output:    args[1],
		Assembly:  assembly,
		MafMethod: method,
		ChunkSize: viper.GetInt("chunk-size"),
		Retries:   viper.GetInt("retries"),
		Timeout:   viper.GetDuration("timeout"),
		NoVep:     viper.GetBool("no-vep"),
		VepJSON:   viper.GetString("vep-json"),
		CachePath: viper.GetString("vep-cache"),
		Logger:    logger,
	})
}

// newLogger builds a console logger writing to stderr at the given level,
// keeping stdout free for the output table.
func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q (choose debug, info, warn or error)", level)
	}
	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	return cfg.Build()
}
