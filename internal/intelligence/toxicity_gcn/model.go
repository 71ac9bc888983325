// Package toxicity_gcn runs the Tox21 graph-convolutional classifier hosted on
// a model server and turns its softmax output into a labelled report.
package toxicity_gcn

import (
	"fmt"
	"time"

	"github.com/turtacn/ToxInsight/internal/config"
	"github.com/turtacn/ToxInsight/internal/domain/molecule"
	errs "github.com/turtacn/ToxInsight/pkg/errors"
)

// Classes per task in the model output: [non-toxic, toxic].
const classesPerTask = 2

// ModelConfig describes the deployed model.
type ModelConfig struct {
	ModelName string
	Version   string
	Threshold float64
	CacheTTL  time.Duration
}

// DefaultModelConfig matches the stock Tox21 GraphConv deployment.
func DefaultModelConfig() *ModelConfig {
	return &ModelConfig{
		ModelName: "tox21_graphconv",
		Threshold: molecule.DefaultToxicThreshold,
		CacheTTL:  24 * time.Hour,
	}
}

// ModelConfigFrom maps the model section of the service configuration.
func ModelConfigFrom(cfg config.ModelConfig) *ModelConfig {
	mc := DefaultModelConfig()
	if cfg.ModelName != "" {
		mc.ModelName = cfg.ModelName
	}
	mc.Version = cfg.Version
	if cfg.Threshold > 0 {
		mc.Threshold = cfg.Threshold
	}
	if cfg.CacheTTL > 0 {
		mc.CacheTTL = cfg.CacheTTL
	}
	return mc
}

// Validate checks the configuration.
func (c *ModelConfig) Validate() error {
	if c.ModelName == "" {
		return errs.New(errs.ErrCodeValidation, "model name is required")
	}
	if c.Threshold <= 0 || c.Threshold >= 1 {
		return errs.New(errs.ErrCodeValidation, "threshold must be in (0,1)").
			WithDetail(fmt.Sprintf("%v", c.Threshold))
	}
	return nil
}

// toxicProbabilities extracts the toxic-class probability per task from a
// [1][12][2] tensor.
func toxicProbabilities(tensor [][][]float64) ([]float64, error) {
	if len(tensor) != 1 {
		return nil, fmt.Errorf("expected 1 instance, got %d", len(tensor))
	}
	tasks := tensor[0]
	if len(tasks) != molecule.EndpointCount {
		return nil, fmt.Errorf("expected %d tasks, got %d", molecule.EndpointCount, len(tasks))
	}
	probs := make([]float64, len(tasks))
	for i, classes := range tasks {
		if len(classes) != classesPerTask {
			return nil, fmt.Errorf("task %d: expected %d classes, got %d", i, classesPerTask, len(classes))
		}
		probs[i] = classes[1]
	}
	return probs, nil
}

//Personal.AI order the ending
