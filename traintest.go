package mfgnet

import (
	"math/rand"
	"time"

	"github.com/pkg/errors"
	"github.com/sharnoff/mfgnet/utils"
	"github.com/sirupsen/logrus"
)

// Model is anything that can be trained by a Trainer. Both Sequential and the assembled
// CNN+LSTM network satisfy it.
type Model interface {
	Forward(in *utils.Tensor, training bool) (*utils.Tensor, error)
	Backward(grad *utils.Tensor) (*utils.Tensor, error)
	Params() []*Param
}

// State is the stage of training a Trainer is at. The order is:
//	Idle -> TrainingEpoch -> Validating -> (SchedulerStep) -> TrainingEpoch ... -> Done
// SchedulerStep is only entered when a schedule has been given.
type State int

const (
	Idle State = iota
	TrainingEpoch
	Validating
	SchedulerStep
	Done
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case TrainingEpoch:
		return "training"
	case Validating:
		return "validating"
	case SchedulerStep:
		return "scheduler step"
	case Done:
		return "done"
	default:
		return "unknown"
	}
}

// EpochResult is sent back after each epoch has been validated.
type EpochResult struct {
	// Epoch starts at 0
	Epoch int

	TrainLoss float64
	ValLoss   float64

	// Accuracy indicates whether TrainAcc and ValAcc are set. They are percentages, 0 → 100.
	Accuracy bool
	TrainAcc float64
	ValAcc   float64

	LearningRate float64
	Duration     time.Duration
}

// History is the record of every completed epoch. TrainAcc and ValAcc stay empty unless the
// cost function is a Classifier.
type History struct {
	TrainLoss     []float64
	TrainAcc      []float64 `json:",omitempty"`
	ValLoss       []float64
	ValAcc        []float64 `json:",omitempty"`
	LearningRates []float64
}

// Epochs returns the number of completed epochs.
func (h History) Epochs() int {
	return len(h.ValLoss)
}

func (h History) copy() History {
	cp := func(s []float64) []float64 {
		if s == nil {
			return nil
		}
		return append([]float64(nil), s...)
	}

	return History{cp(h.TrainLoss), cp(h.TrainAcc), cp(h.ValLoss), cp(h.ValAcc), cp(h.LearningRates)}
}

// TrainArgs is everything a Trainer needs.
type TrainArgs struct {
	Model      Model
	Train      *Dataset
	Validation *Dataset

	Cost      CostFunction
	Optimizer Optimizer
	// Penalty, if not nil, is applied to every Param before each optimizer step
	Penalty Penalty

	// Schedule gives the learning rate for each epoch, stepped once after each validation.
	// If it is nil, LearningRate is used for every epoch.
	Schedule     HyperParameter
	LearningRate float64

	Epochs    int
	BatchSize int

	// Shuffle causes the training batches to be drawn in a new random order every epoch,
	// using Rand.
	Shuffle bool
	Rand    *rand.Rand

	// Logger receives a line per epoch. If nil, logrus.New() is used.
	Logger *logrus.Logger

	// Update, if not nil, is called after every epoch.
	Update func(EpochResult)
}

// Trainer runs the epoch loop as a state machine. Each call to Step completes the work of
// the current State and moves to the next.
type Trainer struct {
	args     TrainArgs
	params   []*Param
	classify bool

	state State
	epoch int
	// number of times the schedule has been stepped
	steps int

	started time.Time
	current EpochResult
	history History
}

// NewTrainer checks the arguments and returns a Trainer in the Idle state.
func NewTrainer(args TrainArgs) (*Trainer, error) {
	switch {
	case args.Model == nil:
		return nil, NilArgError{"Model"}
	case args.Train == nil:
		return nil, NilArgError{"Training data"}
	case args.Validation == nil:
		return nil, NilArgError{"Validation data"}
	case args.Cost == nil:
		return nil, NilArgError{"CostFunction"}
	case args.Optimizer == nil:
		return nil, NilArgError{"Optimizer"}
	case args.Shuffle && args.Rand == nil:
		return nil, NilArgError{"Rand (required for Shuffle)"}
	}

	if args.Train.Len() == 0 || args.Validation.Len() == 0 {
		return nil, ErrEmptySplit
	} else if args.Epochs < 1 {
		return nil, errors.Errorf("Epochs must be positive (got %d)", args.Epochs)
	} else if args.BatchSize < 1 {
		return nil, errors.Errorf("Batch size must be positive (got %d)", args.BatchSize)
	} else if args.Schedule == nil && args.LearningRate <= 0 {
		return nil, errors.Errorf("Learning rate must be positive (got %g)", args.LearningRate)
	}

	if args.Logger == nil {
		args.Logger = logrus.New()
	}

	return &Trainer{
		args:     args,
		params:   args.Model.Params(),
		classify: IsClassification(args.Cost),
	}, nil
}

// State returns the current State of the Trainer.
func (t *Trainer) State() State {
	return t.state
}

// Epoch returns the index of the current epoch, or the number of epochs if training is done.
func (t *Trainer) Epoch() int {
	return t.epoch
}

// History returns a copy of the results of every completed epoch.
func (t *Trainer) History() History {
	return t.history.copy()
}

// LearningRate returns the learning rate for the current epoch.
func (t *Trainer) LearningRate() float64 {
	if t.args.Schedule == nil {
		return t.args.LearningRate
	}

	return t.args.Schedule.Value(t.steps)
}

// Run calls Step until training is done, returning the first error encountered.
func (t *Trainer) Run() error {
	for t.state != Done {
		if err := t.Step(); err != nil {
			return err
		}
	}

	return nil
}

// Step performs the work of the current State and advances to the next. Calling Step once
// training is done has no effect. If an error is returned, the State is unchanged.
func (t *Trainer) Step() error {
	switch t.state {
	case Idle:
		t.state = TrainingEpoch

	case TrainingEpoch:
		t.started = time.Now()
		lr := t.LearningRate()

		loss, acc, err := t.pass(t.args.Train, true, lr)
		if err != nil {
			return errors.Wrapf(err, "Training failed on epoch %d", t.epoch)
		}

		t.current = EpochResult{
			Epoch:        t.epoch,
			TrainLoss:    loss,
			Accuracy:     t.classify,
			TrainAcc:     acc,
			LearningRate: lr,
		}
		t.state = Validating

	case Validating:
		loss, acc, err := t.pass(t.args.Validation, false, 0)
		if err != nil {
			return errors.Wrapf(err, "Validation failed on epoch %d", t.epoch)
		}

		t.current.ValLoss = loss
		t.current.ValAcc = acc
		t.current.Duration = time.Since(t.started)
		t.record(t.current)

		if t.args.Schedule != nil {
			t.state = SchedulerStep
		} else {
			t.nextEpoch()
		}

	case SchedulerStep:
		t.steps++
		t.nextEpoch()

	case Done:
	}

	return nil
}

func (t *Trainer) nextEpoch() {
	t.epoch++
	if t.epoch >= t.args.Epochs {
		t.state = Done
	} else {
		t.state = TrainingEpoch
	}
}

func (t *Trainer) record(r EpochResult) {
	h := &t.history
	h.TrainLoss = append(h.TrainLoss, r.TrainLoss)
	h.ValLoss = append(h.ValLoss, r.ValLoss)
	h.LearningRates = append(h.LearningRates, r.LearningRate)

	fields := logrus.Fields{
		"epoch":      r.Epoch + 1,
		"train_loss": r.TrainLoss,
		"val_loss":   r.ValLoss,
		"lr":         r.LearningRate,
		"time":       r.Duration.Round(time.Millisecond),
	}

	if t.args.Penalty != nil {
		var pen float64
		for _, p := range t.params {
			pen += t.args.Penalty.Cost(p)
		}
		fields["penalty"] = pen
	}

	if r.Accuracy {
		h.TrainAcc = append(h.TrainAcc, r.TrainAcc)
		h.ValAcc = append(h.ValAcc, r.ValAcc)
		fields["train_acc"] = r.TrainAcc
		fields["val_acc"] = r.ValAcc
	}

	t.args.Logger.WithFields(fields).Infof("Epoch %d/%d", r.Epoch+1, t.args.Epochs)

	if t.args.Update != nil {
		t.args.Update(r)
	}
}

// pass runs over the whole dataset once, returning the mean batch loss and, for classifiers,
// the percentage of samples classified correctly. If training is true, the Params are updated
// after each batch.
func (t *Trainer) pass(data *Dataset, training bool, lr float64) (loss, acc float64, err error) {
	var rng *rand.Rand
	if training && t.args.Shuffle {
		rng = t.args.Rand
	}

	batches := data.Batches(t.args.BatchSize, rng)

	var sum float64
	var correct int
	for b, idx := range batches {
		x, targets := data.Gather(idx)

		if training {
			ZeroGrad(t.params)
		}

		out, err := t.args.Model.Forward(x, training)
		if err != nil {
			return 0, 0, errors.Wrapf(err, "Batch %d", b)
		}

		outs := Rows(out)
		cost, err := t.args.Cost.Cost(outs, targets)
		if err != nil {
			return 0, 0, errors.Wrapf(err, "Failed to get cost on batch %d", b)
		}

		sum += cost

		if t.classify {
			for i := range outs {
				if CorrectClass(outs[i], targets[i]) {
					correct++
				}
			}
		}

		if !training {
			continue
		}

		derivs, err := t.args.Cost.Derivs(outs, targets)
		if err != nil {
			return 0, 0, errors.Wrapf(err, "Failed to get derivatives on batch %d", b)
		}

		grad := FromRows(derivs)
		if grad, err = grad.Reshape(out.Dims...); err != nil {
			return 0, 0, errors.Wrapf(err, "Batch %d", b)
		}

		if _, err = t.args.Model.Backward(grad); err != nil {
			return 0, 0, errors.Wrapf(err, "Batch %d", b)
		}

		if t.args.Penalty != nil {
			for _, p := range t.params {
				t.args.Penalty.Penalize(p)
			}
		}

		if err = t.args.Optimizer.Run(t.params, lr); err != nil {
			return 0, 0, errors.Wrapf(err, "Optimizer failed on batch %d", b)
		}
	}

	loss = sum / float64(len(batches))
	if t.classify {
		acc = 100 * float64(correct) / float64(data.Len())
	}

	return loss, acc, nil
}
