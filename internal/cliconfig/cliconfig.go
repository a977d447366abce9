// Package cliconfig loads the corrmatch-cli run configuration (image
// paths, compile options, match options) from flags, environment, and an
// optional JSON/YAML/TOML file via viper, the way a config file and flags
// are merged for the rest of the corrmatch CLI surface.
package cliconfig

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// CompileConfig mirrors bank.CompileConfig / bank.CompileUnrotatedConfig as
// a flat, JSON/YAML-friendly shape. Keys absent from every source take
// DefaultRunConfig's values; an explicit zero is passed to the library
// unchanged.
type CompileConfig struct {
	MaxLevels          int     `mapstructure:"max_levels"`
	Rotation           bool    `mapstructure:"rotation"`
	CoarseStepDeg      float64 `mapstructure:"coarse_step_deg"`
	MinStepDeg         float64 `mapstructure:"min_step_deg"`
	FillValue          int     `mapstructure:"fill_value"`
	PrecomputeCoarsest bool    `mapstructure:"precompute_coarsest"`
}

// MatchConfig mirrors search.MatchConfig as a flat, JSON/YAML-friendly
// shape.
type MatchConfig struct {
	Metric              string  `mapstructure:"metric"`
	Rotation            bool    `mapstructure:"rotation"`
	Parallel            bool    `mapstructure:"parallel"`
	MaxImageLevels      int     `mapstructure:"max_image_levels"`
	BeamWidth           int     `mapstructure:"beam_width"`
	PerAngleTopK        int     `mapstructure:"per_angle_topk"`
	NMSRadius           int     `mapstructure:"nms_radius"`
	ROIRadius           int     `mapstructure:"roi_radius"`
	AngleHalfRangeSteps int     `mapstructure:"angle_half_range_steps"`
	MinVarI             float64 `mapstructure:"min_var_i"`
	MinScore            float64 `mapstructure:"min_score"`
}

// RunConfig is the full corrmatch-cli job description.
type RunConfig struct {
	ImagePath    string        `mapstructure:"image_path"`
	TemplatePath string        `mapstructure:"template_path"`
	OutputPath   string        `mapstructure:"output_path"`
	TopK         int           `mapstructure:"topk"`
	Compile      CompileConfig `mapstructure:"compile"`
	Match        MatchConfig   `mapstructure:"match"`
}

// DefaultRunConfig returns the defaults that Load and the registered flags
// fall back to, and the base of the CLI's --print-example output.
func DefaultRunConfig() RunConfig {
	return RunConfig{
		TopK: 1,
		Compile: CompileConfig{
			MaxLevels:          6,
			CoarseStepDeg:      10,
			MinStepDeg:         0.5,
			FillValue:          0,
			PrecomputeCoarsest: true,
		},
		Match: MatchConfig{
			Metric:              "zncc",
			MaxImageLevels:      6,
			BeamWidth:           5,
			PerAngleTopK:        3,
			NMSRadius:           2,
			ROIRadius:           6,
			AngleHalfRangeSteps: 1,
			MinVarI:             1e-6,
			MinScore:            -1e300,
		},
	}
}

// flagBinder is the subset of *cobra.Command used to bind flags, named for
// the interface it satisfies rather than the concrete type.
type flagBinder interface {
	Flags() *pflag.FlagSet
}

// RegisterFlags adds the flat run-config flags to fs.
func RegisterFlags(fs *pflag.FlagSet, defaults RunConfig) {
	fs.String("image-path", defaults.ImagePath, "Path to the search image")
	fs.String("template-path", defaults.TemplatePath, "Path to the template image")
	fs.String("output-path", defaults.OutputPath, "Optional path to write the JSON result (stdout if empty)")
	fs.Int("topk", defaults.TopK, "Number of top matches to report")
	fs.Int("compile-max-levels", defaults.Compile.MaxLevels, "Template pyramid depth")
	fs.Bool("compile-rotation", defaults.Compile.Rotation, "Compile with a per-level rotated plan bank")
	fs.Float64("compile-coarse-step-deg", defaults.Compile.CoarseStepDeg, "Angle grid step at the coarsest level")
	fs.Float64("compile-min-step-deg", defaults.Compile.MinStepDeg, "Angle grid step floor at the finest level")
	fs.Int("compile-fill-value", defaults.Compile.FillValue, "Fill value for rotated pixels sampling outside the template")
	fs.Bool("compile-precompute-coarsest", defaults.Compile.PrecomputeCoarsest, "Eagerly materialize every angle at the coarsest level")
	fs.String("match-metric", defaults.Match.Metric, "Correlation metric: zncc or ssd")
	fs.Bool("match-rotation", defaults.Match.Rotation, "Search over the angle grid (requires compile-rotation)")
	fs.Bool("match-parallel", defaults.Match.Parallel, "Enable data-parallel scans")
	fs.Int("match-max-image-levels", defaults.Match.MaxImageLevels, "Cap on search image pyramid depth")
	fs.Int("match-beam-width", defaults.Match.BeamWidth, "Candidates carried between pyramid levels")
	fs.Int("match-per-angle-topk", defaults.Match.PerAngleTopK, "Peaks kept per angle before NMS")
	fs.Int("match-nms-radius", defaults.Match.NMSRadius, "Chebyshev suppression radius in pixels")
	fs.Int("match-roi-radius", defaults.Match.ROIRadius, "Refinement ROI half-width in pixels")
	fs.Int("match-angle-half-range-steps", defaults.Match.AngleHalfRangeSteps, "Angle neighborhood half-range in grid steps")
	fs.Float64("match-min-var-i", defaults.Match.MinVarI, "Minimum search-window variance (ZNCC only)")
	fs.Float64("match-min-score", defaults.Match.MinScore, "Minimum accepted score")
}

// LoadOptions configures Load.
type LoadOptions struct {
	Cmd        flagBinder
	ConfigFile string
	Defaults   RunConfig
}

func setDefaults(v *viper.Viper, d RunConfig) {
	v.SetDefault("image_path", d.ImagePath)
	v.SetDefault("template_path", d.TemplatePath)
	v.SetDefault("output_path", d.OutputPath)
	v.SetDefault("topk", d.TopK)
	v.SetDefault("compile.max_levels", d.Compile.MaxLevels)
	v.SetDefault("compile.rotation", d.Compile.Rotation)
	v.SetDefault("compile.coarse_step_deg", d.Compile.CoarseStepDeg)
	v.SetDefault("compile.min_step_deg", d.Compile.MinStepDeg)
	v.SetDefault("compile.fill_value", d.Compile.FillValue)
	v.SetDefault("compile.precompute_coarsest", d.Compile.PrecomputeCoarsest)
	v.SetDefault("match.metric", d.Match.Metric)
	v.SetDefault("match.rotation", d.Match.Rotation)
	v.SetDefault("match.parallel", d.Match.Parallel)
	v.SetDefault("match.max_image_levels", d.Match.MaxImageLevels)
	v.SetDefault("match.beam_width", d.Match.BeamWidth)
	v.SetDefault("match.per_angle_topk", d.Match.PerAngleTopK)
	v.SetDefault("match.nms_radius", d.Match.NMSRadius)
	v.SetDefault("match.roi_radius", d.Match.ROIRadius)
	v.SetDefault("match.angle_half_range_steps", d.Match.AngleHalfRangeSteps)
	v.SetDefault("match.min_var_i", d.Match.MinVarI)
	v.SetDefault("match.min_score", d.Match.MinScore)
}

// Load merges flags, environment, and an optional config file into a
// RunConfig.
func Load(opts LoadOptions) (RunConfig, error) {
	v := viper.New()
	setDefaults(v, opts.Defaults)

	if opts.Cmd != nil {
		// Flags are named like "compile-max-levels"; bind each one under the
		// config key it overrides ("compile.max_levels").
		var bindErr error
		opts.Cmd.Flags().VisitAll(func(f *pflag.Flag) {
			key := strings.Replace(strings.ReplaceAll(f.Name, "-", "_"), "compile_", "compile.", 1)
			key = strings.Replace(key, "match_", "match.", 1)
			if err := v.BindPFlag(key, f); err != nil && bindErr == nil {
				bindErr = err
			}
		})
		if bindErr != nil {
			return RunConfig{}, fmt.Errorf("bind flags: %w", bindErr)
		}
	}

	v.SetEnvPrefix("CORRMATCH")
	v.AutomaticEnv()

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return RunConfig{}, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg RunConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return RunConfig{}, fmt.Errorf("decode config: %w", err)
	}
	return cfg, nil
}
