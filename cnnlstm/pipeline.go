// Package cnnlstm assembles and trains CNN+LSTM networks described by an mfgnet.Config, on
// datasets of image sequences.
//
// A Pipeline goes through its stages in order:
//
//		p, err := cnnlstm.New(cfg, data) // validates and splits
//		err = p.Assemble()
//		err = p.Train()
//		err = p.Report(cnnlstm.ReportOptions{Plots: true})
//		preds, err := p.Predict(x)
//
// Interactive does all of these, asking for the Config on the way.
package cnnlstm

import (
	"fmt"
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/sharnoff/mfgnet"
	_ "github.com/sharnoff/mfgnet/costfuncs"
	_ "github.com/sharnoff/mfgnet/hyperparams"
	_ "github.com/sharnoff/mfgnet/optimizers"
	_ "github.com/sharnoff/mfgnet/penalties"
	"github.com/sharnoff/mfgnet/plotting"
	"github.com/sharnoff/mfgnet/utils"
	"github.com/sirupsen/logrus"
)

// The names of the files written by Report.
const (
	WeightsFile  = "model_parameters.json"
	LossFile     = "loss.png"
	AccuracyFile = "accuracy.png"
	ConfigFile   = "config.json"
)

// Device is where the network runs. Only the CPU is supported.
const Device = "cpu"

// Pipeline holds a Config, the dataset split it was given, and - once assembled and trained -
// the network and its training history.
type Pipeline struct {
	// Logger receives progress messages. New sets it to logrus.New().
	Logger *logrus.Logger
	// Out receives the summary printed by Report. New sets it to os.Stdout.
	Out io.Writer

	cfg        mfgnet.Config
	train, val *mfgnet.Dataset
	rng        *rand.Rand

	net      *Network
	cost     mfgnet.CostFunction
	opt      mfgnet.Optimizer
	schedule mfgnet.HyperParameter
	penalty  mfgnet.Penalty

	history mfgnet.History
	trained bool
}

// New validates the Config against the dataset and splits the dataset into training and
// validation sets. Each sample must have the shape [time, height, width], with the image size of
// the Config. For cross-entropy, each target must be a single class index less than the output
// size; otherwise targets must have the output size.
func New(cfg mfgnet.Config, data *mfgnet.Dataset) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "Invalid config")
	} else if data == nil {
		return nil, errors.Errorf("Dataset is nil")
	} else if err = checkData(cfg, data); err != nil {
		return nil, err
	}

	// copy so that later changes to the caller's layers aren't seen
	cfg.Layers = append([]mfgnet.ConvLayer(nil), cfg.Layers...)
	cfg.Schedule.Milestones = append([]int(nil), cfg.Schedule.Milestones...)

	p := &Pipeline{
		Logger: logrus.New(),
		Out:    os.Stdout,
		cfg:    cfg,
		rng:    rand.New(rand.NewSource(cfg.Seed)),
	}

	var err error
	if p.train, p.val, err = data.Split(cfg.ValSize, cfg.Shuffle, p.rng); err != nil {
		return nil, err
	}

	return p, nil
}

func checkData(cfg mfgnet.Config, data *mfgnet.Dataset) error {
	s := data.SampleShape
	if len(s) != 3 || s[1] != cfg.ImageHeight || s[2] != cfg.ImageWidth {
		return errors.Errorf("Samples must have shape [time %d %d], got %v", cfg.ImageHeight, cfg.ImageWidth, s)
	}

	out := cfg.Recurrent.Output
	if !cfg.Classification() {
		if data.TargetWidth() != out {
			return mfgnet.SizeMismatchError{Expected: out, Got: data.TargetWidth(), What: "target values"}
		}
		return nil
	}

	if data.TargetWidth() != 1 {
		return mfgnet.SizeMismatchError{Expected: 1, Got: data.TargetWidth(), What: "class target values"}
	}

	for i, t := range data.Targets {
		if c := int(t[0]); float64(c) != t[0] || c < 0 || c >= out {
			return errors.Errorf("Target %d (%v) is not a class index below %d", i, t[0], out)
		}
	}

	return nil
}

// Config returns the Config of the Pipeline.
func (p *Pipeline) Config() mfgnet.Config {
	return p.cfg
}

// Split returns the training and validation sets.
func (p *Pipeline) Split() (train, val *mfgnet.Dataset) {
	return p.train, p.val
}

// Network returns the assembled Network, or nil if Assemble has not been called.
func (p *Pipeline) Network() *Network {
	return p.net
}

// Assemble builds the network, cost function, optimizer, learning-rate schedule, and weight
// penalty.
func (p *Pipeline) Assemble() error {
	net, err := Assemble(p.cfg, p.train.SampleShape[0], p.rng)
	if err != nil {
		return err
	}

	if p.cost, err = mfgnet.GetCostFunction(p.cfg.Loss); err != nil {
		return err
	} else if p.opt, err = mfgnet.GetOptimizer(p.cfg.Optimizer, p.cfg.OptimizerArgs); err != nil {
		return err
	}

	sc := p.cfg.Schedule
	if sc.Type == "" {
		sc.Type = mfgnet.ScheduleNone
	}
	if p.schedule, err = mfgnet.GetSchedule(p.cfg.LearningRate, sc); err != nil {
		return err
	} else if p.penalty, err = mfgnet.GetPenalty(p.cfg.Penalty); err != nil {
		return err
	}

	p.net = net
	p.trained = false
	p.history = mfgnet.History{}

	fields := logrus.Fields{
		"train":  p.train.Len(),
		"val":    p.val.Len(),
		"params": mfgnet.CountParams(net.Params()),
	}

	if !p.cfg.Classification() {
		means, stds := p.train.TargetStats()
		fields["target_mean"] = means
		fields["target_std"] = stds
	}

	p.Logger.WithFields(fields).Info("Assembled network")
	return nil
}

// Train runs the training loop for the configured number of epochs. Training batches are drawn
// in a new random order every epoch.
func (p *Pipeline) Train() error {
	if p.net == nil {
		return mfgnet.ErrNotAssembled
	}

	t, err := mfgnet.NewTrainer(mfgnet.TrainArgs{
		Model:        p.net,
		Train:        p.train,
		Validation:   p.val,
		Cost:         p.cost,
		Optimizer:    p.opt,
		Schedule:     p.schedule,
		Penalty:      p.penalty,
		LearningRate: p.cfg.LearningRate,
		Epochs:       p.cfg.Epochs,
		BatchSize:    p.cfg.BatchSize,
		Shuffle:      true,
		Rand:         p.rng,
		Logger:       p.Logger,
	})
	if err != nil {
		return err
	}

	p.Logger.Info("Training the model...")

	err = t.Run()
	p.history = t.History()
	if err != nil {
		return err
	}

	p.trained = true
	return nil
}

// History returns the results of each epoch of training so far.
func (p *Pipeline) History() mfgnet.History {
	return p.history
}

// Summary describes the network and how it is trained.
func (p *Pipeline) Summary() string {
	c := p.cfg
	lines := []string{
		"Model Summary:",
		fmt.Sprintf("%-22s: %v", "Bidirectional", c.Recurrent.Bidirectional),
		fmt.Sprintf("%-22s: %d", "Number of layers", c.Recurrent.Layers),
		fmt.Sprintf("%-22s: %s", "Criterion", c.Loss),
		fmt.Sprintf("%-22s: %s", "Optimizer", c.Optimizer),
		fmt.Sprintf("%-22s: %v", "Optimizer settings", c.OptimizerArgs),
		fmt.Sprintf("%-22s: %v", "Scheduler", c.Schedule),
		fmt.Sprintf("%-22s: %v", "Weight penalty", c.Penalty),
		fmt.Sprintf("%-22s: %g", "Validation set size", c.ValSize),
		fmt.Sprintf("%-22s: %d", "Batch size", c.BatchSize),
		fmt.Sprintf("%-22s: %g", "Initial learning rate", c.LearningRate),
		fmt.Sprintf("%-22s: %d", "Number of epochs", c.Epochs),
		fmt.Sprintf("%-22s: %s", "Device", Device),
	}

	if p.net != nil {
		lines = append([]string{"Network architecture:", p.net.String(), ""}, lines...)
	}

	return strings.Join(lines, "\n")
}

// ReportOptions selects what Report writes. Files are written to Dir, or the working directory
// if it is empty.
type ReportOptions struct {
	Dir string

	// Plots writes the loss curves, and the accuracy curves for cross-entropy
	Plots       bool
	SaveWeights bool
	SaveConfig  bool
}

// Report prints the summary and the final results to Out, and writes the files selected by the
// options.
func (p *Pipeline) Report(opts ReportOptions) error {
	if !p.trained {
		return mfgnet.ErrNotTrained
	}

	h := p.history
	last := h.Epochs() - 1

	fmt.Fprintln(p.Out, strings.Repeat("=", 25))
	fmt.Fprintln(p.Out, p.Summary())
	fmt.Fprintln(p.Out, strings.Repeat("=", 25))
	fmt.Fprintf(p.Out, "Final training loss: %g\n", h.TrainLoss[last])
	fmt.Fprintf(p.Out, "Final validation loss: %g\n", h.ValLoss[last])
	if len(h.ValAcc) > 0 {
		fmt.Fprintf(p.Out, "Final training accuracy: %.2f%%\n", h.TrainAcc[last])
		fmt.Fprintf(p.Out, "Final validation accuracy: %.2f%%\n", h.ValAcc[last])
	}

	path := func(name string) string {
		return filepath.Join(opts.Dir, name)
	}

	if opts.Dir != "" {
		if err := os.MkdirAll(opts.Dir, 0700); err != nil {
			return errors.Wrapf(err, "Failed to create directory %q", opts.Dir)
		}
	}

	if opts.Plots {
		if err := plotting.Loss(path(LossFile), h); err != nil {
			return err
		}
		p.Logger.WithField("file", path(LossFile)).Info("Saved loss graph")

		if len(h.TrainAcc) > 0 {
			if err := plotting.Accuracy(path(AccuracyFile), h); err != nil {
				return err
			}
			p.Logger.WithField("file", path(AccuracyFile)).Info("Saved accuracy graph")
		}
	}

	if opts.SaveWeights {
		if err := p.SaveWeights(path(WeightsFile)); err != nil {
			return err
		}
		p.Logger.WithField("file", path(WeightsFile)).Info("Saved model weights")
	}

	if opts.SaveConfig {
		if err := p.cfg.Save(path(ConfigFile)); err != nil {
			return err
		}
		p.Logger.WithField("file", path(ConfigFile)).Info("Saved config")
	}

	return nil
}

func (p *Pipeline) state() []*mfgnet.Param {
	return append(p.net.Params(), p.net.Buffers()...)
}

// SaveWeights writes every parameter of the network, including the running statistics of batch
// normalization, to the file at path.
func (p *Pipeline) SaveWeights(path string) error {
	if p.net == nil {
		return mfgnet.ErrNotAssembled
	}
	return mfgnet.SaveParams(path, p.state())
}

// LoadWeights replaces the parameters of the network with those saved by SaveWeights. The
// network must have been assembled from the same Config.
func (p *Pipeline) LoadWeights(path string) error {
	if p.net == nil {
		return mfgnet.ErrNotAssembled
	}
	return mfgnet.LoadParams(path, p.state())
}

// Predict runs the network on either a single input of [time, height, width] or a batch of
// [n, time, height, width]. For cross-entropy, it returns the index of the highest-scoring class
// of each input, as [n]; otherwise the outputs, as [n, output size].
//
// Predict does not change the network: calling it twice on the same input gives the same result.
func (p *Pipeline) Predict(x *utils.Tensor) (*utils.Tensor, error) {
	if p.net == nil {
		return nil, mfgnet.ErrNotAssembled
	} else if x == nil {
		return nil, errors.Errorf("Input tensor is nil")
	}

	var err error
	if x.Rank() == 3 {
		if x, err = x.Reshape(append([]int{1}, x.Dims...)...); err != nil {
			return nil, err
		}
	}

	out, err := p.net.Forward(x, false)
	if err != nil {
		return nil, errors.Wrap(err, "Prediction failed")
	}

	if !p.cfg.Classification() {
		return out, nil
	}

	classes := utils.NewTensor(out.Dim(0))
	for i, row := range mfgnet.Rows(out) {
		classes.Values[i] = float64(mfgnet.ArgMax(row))
	}

	return classes, nil
}
