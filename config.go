package mfgnet

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// Names of the loss functions, optimizers, and schedules that a Config may refer to. The
// subpackages costfuncs, optimizers, and hyperparams register their types under these names.
const (
	LossCrossEntropy = "cross-entropy"
	LossL1           = "l1"
	LossSmoothL1     = "smooth-l1"
	LossMSE          = "mse"

	OptimizerAdam = "adam"
	OptimizerSGD  = "sgd"

	ScheduleNone      = "none"
	ScheduleStep      = "step"
	ScheduleMultiStep = "multistep"

	// InitDefault draws weights uniformly from ±1/sqrt(fan in)
	InitDefault = "default"
	InitHe      = "he"
	InitXavier  = "xavier"
	InitLeCun   = "lecun"

	// InitHeFanOut scales He initialization by the fan out of each unit
	InitHeFanOut = "he-fan-out"

	PenaltyNone       = "none"
	PenaltyL1         = "l1-lasso"
	PenaltyL2         = "l2-ridge"
	PenaltyElasticNet = "elastic-net"
)

// Losses lists the loss names in the order they are offered interactively.
var Losses = []string{LossCrossEntropy, LossL1, LossSmoothL1, LossMSE}

// ConvLayer describes a single block of the convolutional stage: a convolution, optionally
// followed by batch normalization, then ReLU, then optionally max pooling.
type ConvLayer struct {
	// Channels is the number of output channels of the convolution
	Channels int
	Kernel   Pair
	Stride   Pair
	Padding  Pair

	BatchNorm bool

	Pooling    bool
	PoolKernel Pair
	PoolStride Pair
}

func (l ConvLayer) String() string {
	s := fmt.Sprintf("conv %d channels, kernel %v, stride %v, padding %v", l.Channels, l.Kernel, l.Stride, l.Padding)
	if l.BatchNorm {
		s += ", batch norm"
	}
	if l.Pooling {
		s += fmt.Sprintf(", max pool %v stride %v", l.PoolKernel, l.PoolStride)
	}

	return s
}

// RecurrentConfig describes the LSTM stage and the linear projections that follow it.
type RecurrentConfig struct {
	Hidden        int
	Layers        int
	Bidirectional bool
	// Output is the size of the final projection; the number of classes for cross-entropy
	Output int
}

// Directions returns 2 if the LSTM is bidirectional, 1 otherwise.
func (r RecurrentConfig) Directions() int {
	if r.Bidirectional {
		return 2
	}
	return 1
}

// HeadSizes returns the sizes of the values passed through the linear projections, starting
// with the LSTM output: D, D/2, D/4, Output where D = Hidden * Directions.
func (r RecurrentConfig) HeadSizes() []int {
	d := r.Hidden * r.Directions()
	return []int{d, d / 2, d / 4, r.Output}
}

// ScheduleConfig describes the learning-rate schedule. StepSize is used only by "step";
// Milestones only by "multistep".
type ScheduleConfig struct {
	Type       string
	StepSize   int     `json:",omitempty"`
	Milestones []int   `json:",omitempty"`
	Gamma      float64 `json:",omitempty"`
}

func (s ScheduleConfig) String() string {
	switch s.Type {
	case ScheduleStep:
		return fmt.Sprintf("step every %d epochs, gamma %g", s.StepSize, s.Gamma)
	case ScheduleMultiStep:
		return fmt.Sprintf("multistep at %v, gamma %g", s.Milestones, s.Gamma)
	case "":
		return ScheduleNone
	default:
		return s.Type
	}
}

// PenaltyConfig describes the regularization applied to every Param during training. Alpha is
// used only by "elastic-net", where it is the share of L1 in the penalty: 1 is pure L1 and 0
// pure L2.
type PenaltyConfig struct {
	Type   string
	Lambda float64 `json:",omitempty"`
	Alpha  float64 `json:",omitempty"`
}

func (p PenaltyConfig) String() string {
	switch p.Type {
	case "", PenaltyNone:
		return PenaltyNone
	case PenaltyElasticNet:
		return fmt.Sprintf("%s, lambda %g, alpha %g", p.Type, p.Lambda, p.Alpha)
	default:
		return fmt.Sprintf("%s, lambda %g", p.Type, p.Lambda)
	}
}

func (p PenaltyConfig) validate() error {
	switch p.Type {
	case "", PenaltyNone:
		return nil
	case PenaltyL1, PenaltyL2, PenaltyElasticNet:
	default:
		return errors.Wrapf(ErrUnknownName, "Penalty %q", p.Type)
	}

	if !positive(p.Lambda) {
		return errors.Errorf("Penalty lambda must be positive (got %g)", p.Lambda)
	} else if p.Type == PenaltyElasticNet && !(p.Alpha >= 0 && p.Alpha <= 1) {
		return errors.Errorf("Elastic net alpha must be in [0, 1] (got %g)", p.Alpha)
	}

	return nil
}

// OptimizerConfig holds optional optimizer settings. Zero values keep each optimizer's
// defaults.
type OptimizerConfig struct {
	// Momentum is the SGD momentum factor, in [0, 1)
	Momentum float64 `json:",omitempty"`

	// Beta1 and Beta2 are the Adam decay rates, each in [0, 1)
	Beta1   float64 `json:",omitempty"`
	Beta2   float64 `json:",omitempty"`
	Epsilon float64 `json:",omitempty"`
}

func (oc OptimizerConfig) String() string {
	if oc == (OptimizerConfig{}) {
		return "defaults"
	}

	var parts []string
	for _, f := range []struct {
		name string
		v    float64
	}{{"momentum", oc.Momentum}, {"beta1", oc.Beta1}, {"beta2", oc.Beta2}, {"epsilon", oc.Epsilon}} {
		if f.v != 0 {
			parts = append(parts, fmt.Sprintf("%s %g", f.name, f.v))
		}
	}

	return strings.Join(parts, ", ")
}

func (oc OptimizerConfig) validate() error {
	if !(oc.Momentum >= 0 && oc.Momentum < 1) {
		return errors.Errorf("Momentum must be in [0, 1) (got %g)", oc.Momentum)
	} else if !(oc.Beta1 >= 0 && oc.Beta1 < 1) || !(oc.Beta2 >= 0 && oc.Beta2 < 1) {
		return errors.Errorf("Adam betas must be in [0, 1) (got %g, %g)", oc.Beta1, oc.Beta2)
	} else if oc.Epsilon != 0 && !positive(oc.Epsilon) {
		return errors.Errorf("Adam epsilon must be positive (got %g)", oc.Epsilon)
	}

	return nil
}

// Config is the complete description of a CNN+LSTM network and how to train it. Once
// collected, it is treated as immutable.
type Config struct {
	ImageHeight int
	ImageWidth  int
	Layers      []ConvLayer
	// Dropout is the probability of zeroing each activation of the convolutional stage
	Dropout float64
	// Init names the initializer for convolutional and linear weights; empty is InitDefault
	Init string `json:",omitempty"`

	Recurrent RecurrentConfig

	BatchSize int
	// ValSize is the fraction of the dataset held out for validation
	ValSize float64
	Shuffle bool

	Loss         string
	Optimizer    string
	LearningRate float64
	Schedule     ScheduleConfig
	Epochs       int
	Seed         int64

	// Penalty regularizes the weights. It and OptimizerArgs are read from config files only,
	// and not asked for interactively.
	Penalty       PenaltyConfig
	OptimizerArgs OptimizerConfig
}

// DefaultLayers returns n convolutional layers with the interactive defaults: 3x3 kernels, no
// padding, unit stride, batch norm on the first two layers and 2x2 max pooling on the last
// only. Each layer is given the corresponding number of channels.
func DefaultLayers(channels ...int) []ConvLayer {
	ls := make([]ConvLayer, len(channels))
	for i, c := range channels {
		ls[i] = ConvLayer{
			Channels:  c,
			Kernel:    Square(3),
			Stride:    Square(1),
			BatchNorm: i < 2,
		}

		if i == len(channels)-1 {
			ls[i].Pooling = true
			ls[i].PoolKernel = Square(2)
			ls[i].PoolStride = Square(2)
		}
	}

	return ls
}

// DefaultConfig returns a Config filled with the interactive defaults. The image size, layers,
// output size, batch size, loss, and epochs have no sensible default and must still be set.
func DefaultConfig() Config {
	return Config{
		Recurrent: RecurrentConfig{
			Hidden: 256,
			Layers: 3,
		},
		ValSize:      0.2,
		Shuffle:      true,
		Optimizer:    OptimizerAdam,
		LearningRate: 0.001,
		Schedule:     ScheduleConfig{Type: ScheduleNone},
	}
}

// Classification returns whether the configured loss treats outputs as class scores.
func (c Config) Classification() bool {
	return c.Loss == LossCrossEntropy
}

// positive returns whether v is finite and greater than zero
func positive(v float64) bool {
	return v > 0 && !math.IsInf(v, 1)
}

func oneOf(s string, options ...string) bool {
	for _, o := range options {
		if s == o {
			return true
		}
	}
	return false
}

// Validate checks every value of the Config, including the shapes produced by the
// convolutional stage and the sizes of the linear projections. It returns a *ShapeError if a
// layer would produce a non-positive size.
func (c Config) Validate() error {
	if len(c.Layers) == 0 {
		return errors.Errorf("Config must have at least one convolutional layer")
	}

	for i, l := range c.Layers {
		if l.Channels < 1 {
			return errors.Errorf("Layer %d must have at least one channel (got %d)", i, l.Channels)
		} else if !l.Kernel.Positive() {
			return errors.Errorf("Layer %d kernel must be positive (got %v)", i, l.Kernel)
		} else if l.Padding.H < 0 || l.Padding.W < 0 {
			return errors.Errorf("Layer %d padding must be non-negative (got %v)", i, l.Padding)
		} else if l.Pooling && !l.PoolKernel.Positive() {
			return errors.Errorf("Layer %d pool kernel must be positive (got %v)", i, l.PoolKernel)
		}
	}

	if _, err := c.FlattenedSize(); err != nil {
		return err
	}

	if !(c.Dropout >= 0 && c.Dropout < 1) {
		return errors.Errorf("Dropout must be in [0, 1) (got %g)", c.Dropout)
	} else if !oneOf(c.Init, "", InitDefault, InitHe, InitHeFanOut, InitXavier, InitLeCun) {
		return errors.Wrapf(ErrUnknownName, "Initializer %q", c.Init)
	}

	r := c.Recurrent
	if r.Hidden < 1 {
		return errors.Errorf("LSTM hidden size must be positive (got %d)", r.Hidden)
	} else if r.Layers < 1 {
		return errors.Errorf("LSTM must have at least one layer (got %d)", r.Layers)
	} else if r.Output < 1 {
		return errors.Errorf("Output size must be positive (got %d)", r.Output)
	} else if hs := r.HeadSizes(); hs[2] < 1 {
		return errors.Errorf("LSTM output size %d is too small for the linear projections (need at least 4)", hs[0])
	}

	if c.BatchSize < 1 {
		return errors.Errorf("Batch size must be positive (got %d)", c.BatchSize)
	} else if !(c.ValSize > 0 && c.ValSize < 1) {
		return errors.Errorf("Validation size must be in (0, 1) (got %g)", c.ValSize)
	} else if c.Epochs < 1 {
		return errors.Errorf("Epochs must be positive (got %d)", c.Epochs)
	}

	if !oneOf(c.Loss, Losses...) {
		return errors.Wrapf(ErrUnknownName, "Loss %q", c.Loss)
	} else if !oneOf(c.Optimizer, OptimizerAdam, OptimizerSGD) {
		return errors.Wrapf(ErrUnknownName, "Optimizer %q", c.Optimizer)
	} else if !positive(c.LearningRate) {
		return errors.Errorf("Learning rate must be positive (got %g)", c.LearningRate)
	} else if err := c.OptimizerArgs.validate(); err != nil {
		return err
	}

	if err := c.Schedule.validate(); err != nil {
		return err
	}

	return c.Penalty.validate()
}

func (s ScheduleConfig) validate() error {
	switch s.Type {
	case ScheduleNone, "":
		return nil
	case ScheduleStep:
		if s.StepSize < 1 {
			return errors.Errorf("Step size must be positive (got %d)", s.StepSize)
		}
	case ScheduleMultiStep:
		if len(s.Milestones) == 0 {
			return errors.Errorf("Multistep schedule needs at least one milestone")
		} else if !sort.IntsAreSorted(s.Milestones) {
			return errors.Errorf("Milestones must be increasing (got %v)", s.Milestones)
		}
		for _, m := range s.Milestones {
			if m < 1 {
				return errors.Errorf("Milestones must be positive (got %v)", s.Milestones)
			}
		}
	default:
		return errors.Wrapf(ErrUnknownName, "Schedule %q", s.Type)
	}

	if !positive(s.Gamma) {
		return errors.Errorf("Gamma must be positive (got %g)", s.Gamma)
	}

	return nil
}

// LoadConfig reads a Config from the JSON file at the given path. The Config is not validated.
func LoadConfig(path string) (Config, error) {
	var c Config

	f, err := os.Open(path)
	if err != nil {
		return c, errors.Wrapf(err, "Failed to open config file %q", path)
	}

	defer f.Close()

	if err = json.NewDecoder(f).Decode(&c); err != nil {
		return c, errors.Wrapf(err, "Failed to decode JSON from config file %q", path)
	}

	return c, nil
}

// Save writes the Config to the given path as indented JSON.
func (c Config) Save(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "Failed to create config file %q", path)
	}

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err = enc.Encode(c); err != nil {
		f.Close()
		return errors.Wrapf(err, "Failed to encode JSON to config file %q", path)
	}

	if err = f.Close(); err != nil {
		return errors.Wrapf(err, "Failed to close config file %q", path)
	}

	return nil
}

func (c Config) initName() string {
	if c.Init == "" {
		return InitDefault
	}
	return c.Init
}

func (c Config) String() string {
	dirs := "unidirectional"
	if c.Recurrent.Bidirectional {
		dirs = "bidirectional"
	}

	fields := []struct {
		key string
		val interface{}
	}{
		{"ImageSize", Pair{c.ImageHeight, c.ImageWidth}},
		{"Dropout", c.Dropout},
		{"Init", c.initName()},
		{"LSTM", fmt.Sprintf("hidden %d, %d layers, %s", c.Recurrent.Hidden, c.Recurrent.Layers, dirs)},
		{"Output", c.Recurrent.Output},
		{"BatchSize", c.BatchSize},
		{"ValSize", c.ValSize},
		{"Shuffle", c.Shuffle},
		{"Loss", c.Loss},
		{"Optimizer", c.Optimizer},
		{"OptimizerArgs", c.OptimizerArgs},
		{"LearningRate", c.LearningRate},
		{"Schedule", c.Schedule},
		{"Penalty", c.Penalty},
		{"Epochs", c.Epochs},
		{"Seed", c.Seed},
	}

	str := []string{"== Config =="}
	for _, f := range fields {
		str = append(str, fmt.Sprintf("%-14s: %v", f.key, f.val))
	}

	str = append(str, "== Layers ==")
	for i, l := range c.Layers {
		str = append(str, fmt.Sprintf("%2d: %s", i, l))
	}

	return strings.Join(str, "\n")
}
