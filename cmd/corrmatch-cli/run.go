package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/soocke/corrmatch"
	"github.com/soocke/corrmatch/internal/cliconfig"
	"github.com/soocke/corrmatch/internal/imageio"
)

// matchResult is the CLI's JSON output shape: the single best match plus
// up to topk matches, in descending score order.
type matchResult struct {
	Best *corrmatch.Match  `json:"best"`
	TopK []corrmatch.Match `json:"topk"`
}

func runMatch(cfg cliconfig.RunConfig) error {
	if cfg.ImagePath == "" || cfg.TemplatePath == "" {
		return fmt.Errorf("image_path and template_path are required")
	}

	searchImg, err := imageio.DecodeGray(cfg.ImagePath)
	if err != nil {
		return err
	}
	tplImg, err := imageio.DecodeGray(cfg.TemplatePath)
	if err != nil {
		return err
	}
	tpl, err := corrmatch.NewTemplate(tplImg.Pix(), tplImg.Width(), tplImg.Height())
	if err != nil {
		return err
	}

	var compiled *corrmatch.CompiledTemplate
	if cfg.Compile.Rotation {
		compiled, err = corrmatch.CompileRotated(tpl, corrmatch.CompileConfig{
			MaxLevels:          cfg.Compile.MaxLevels,
			CoarseStepDeg:      cfg.Compile.CoarseStepDeg,
			MinStepDeg:         cfg.Compile.MinStepDeg,
			FillValue:          byte(cfg.Compile.FillValue),
			PrecomputeCoarsest: cfg.Compile.PrecomputeCoarsest,
		})
	} else {
		compiled, err = corrmatch.CompileUnrotated(tpl, corrmatch.CompileUnrotatedConfig{
			MaxLevels: cfg.Compile.MaxLevels,
		})
	}
	if err != nil {
		return err
	}

	metric := corrmatch.MetricZNCC
	if strings.EqualFold(cfg.Match.Metric, "ssd") {
		metric = corrmatch.MetricSSD
	}
	rotation := corrmatch.RotationDisabled
	if cfg.Match.Rotation {
		rotation = corrmatch.RotationEnabled
	}

	matcher, err := corrmatch.NewMatcher(compiled).WithConfig(corrmatch.MatchConfig{
		Metric:              metric,
		Rotation:            rotation,
		Parallel:            cfg.Match.Parallel,
		MaxImageLevels:      cfg.Match.MaxImageLevels,
		BeamWidth:           cfg.Match.BeamWidth,
		PerAngleTopK:        cfg.Match.PerAngleTopK,
		NMSRadius:           cfg.Match.NMSRadius,
		ROIRadius:           cfg.Match.ROIRadius,
		AngleHalfRangeSteps: cfg.Match.AngleHalfRangeSteps,
		MinVarI:             cfg.Match.MinVarI,
		MinScore:            cfg.Match.MinScore,
	})
	if err != nil {
		return err
	}

	topK := cfg.TopK
	if topK < 1 {
		topK = 1
	}
	matches, err := matcher.MatchTopK(searchImg.View(), topK)
	if err != nil {
		return err
	}

	result := matchResult{TopK: matches}
	if len(matches) > 0 {
		best := matches[0]
		result.Best = &best
	}
	return writeResult(cfg.OutputPath, result)
}

func writeResult(outputPath string, result matchResult) error {
	enc, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}
	if outputPath == "" {
		fmt.Println(string(enc))
		return nil
	}
	return os.WriteFile(outputPath, enc, 0o644)
}
