package climanager

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"github.com/sharnoff/mfgnet"
)

const totalSteps = 18

func (p *Prompter) step(n int, title string) {
	p.Println(strings.Repeat("=", 25))
	p.Printf("%d/%d - %s\n", n, totalSteps, title)
}

// CollectConfig asks the user for every value of a Config, in 18 steps, starting from
// mfgnet.DefaultConfig. If the convolutional layers would shrink the image to nothing, the
// problem is shown and the convolutional steps are asked again. The returned Config has been
// validated.
func CollectConfig(p *Prompter) (mfgnet.Config, error) {
	cfg := mfgnet.DefaultConfig()

	p.Println()
	p.Println("Convolutional Neural Network")
	p.Println()

	p.step(1, "Image size")
	var err error
	if cfg.ImageWidth, err = p.Int("Please enter the image width: ", Positive); err != nil {
		return cfg, err
	}
	if cfg.ImageHeight, err = p.Int("Please enter the image height: ", Positive); err != nil {
		return cfg, err
	}
	p.Printf("Image: %v\n", mfgnet.Pair{H: cfg.ImageHeight, W: cfg.ImageWidth})

	for {
		if cfg.Layers, cfg.Dropout, err = collectLayers(p); err != nil {
			return cfg, err
		}

		shapes, err := cfg.Shapes()
		if err == nil {
			p.Printf("Shapes after the convolutions: %v\n", shapes)
			break
		}

		var serr *mfgnet.ShapeError
		if !errors.As(err, &serr) {
			return cfg, err
		}

		p.Printf("%s. Please enter the convolutional layers again.\n", err)
	}

	if err = collectRecurrent(p, &cfg); err != nil {
		return cfg, err
	}

	if err = collectTraining(p, &cfg); err != nil {
		return cfg, err
	}

	p.Println(strings.Repeat("=", 25))

	return cfg, cfg.Validate()
}

// steps 2 through 8
func collectLayers(p *Prompter) ([]mfgnet.ConvLayer, float64, error) {
	p.step(2, "Number of convolutions")
	n, err := p.Int("Please enter the number of convolutions: ", Positive)
	if err != nil {
		return nil, 0, err
	}

	p.step(3, "Channels")
	channels := make([]int, n)
	for i := range channels {
		prompt := fmt.Sprintf("Please enter the number of channels for convolution %d: ", i+1)
		if channels[i], err = p.Int(prompt, Positive); err != nil {
			return nil, 0, err
		}
	}

	layers := mfgnet.DefaultLayers(channels...)

	p.step(4, "Kernels")
	def, err := p.YesNo("Do you want default values for kernel size (y or n): ")
	if err != nil {
		return nil, 0, err
	}
	for i := 0; i < n && !def; i++ {
		prompt := fmt.Sprintf("Enter the kernel size for convolution %d (for example 3,3): ", i+1)
		if layers[i].Kernel, err = p.Pair(prompt, Positive); err != nil {
			return nil, 0, err
		}
	}

	p.step(5, "Padding and stride")
	if def, err = p.YesNo("Do you want default values for padding and stride (y or n): "); err != nil {
		return nil, 0, err
	}
	for i := 0; i < n && !def; i++ {
		prompt := fmt.Sprintf("Enter the padding for convolution %d (for example 2,2): ", i+1)
		if layers[i].Padding, err = p.Pair(prompt, NonNegative); err != nil {
			return nil, 0, err
		}

		prompt = fmt.Sprintf("Enter the stride for convolution %d (for example 2,2): ", i+1)
		if layers[i].Stride, err = p.Pair(prompt, Positive); err != nil {
			return nil, 0, err
		}
	}

	p.step(6, "Dropout")
	var dropout float64
	if def, err = p.YesNo("Do you want the default dropout (y or n): "); err != nil {
		return nil, 0, err
	} else if !def {
		if dropout, err = p.Float("Please enter the dropout probability: ", Probability); err != nil {
			return nil, 0, err
		}
	}

	p.step(7, "Max pooling")
	if def, err = p.YesNo("Do you want default pooling values (y or n): "); err != nil {
		return nil, 0, err
	}
	for i := 0; i < n && !def; i++ {
		l := &layers[i]
		prompt := fmt.Sprintf("Please enter 1 (yes) or 0 (no) for pooling after convolution %d: ", i+1)
		if l.Pooling, err = p.Flag(prompt, Constraint{}); err != nil {
			return nil, 0, err
		}

		if !l.Pooling {
			l.PoolKernel, l.PoolStride = mfgnet.Pair{}, mfgnet.Pair{}
			continue
		}

		if l.PoolKernel, err = p.Pair("Please enter the pool size (for example 2,2): ", Positive); err != nil {
			return nil, 0, err
		}
		if l.PoolStride, err = p.Pair("Please enter the pool stride (for example 2,2): ", Positive); err != nil {
			return nil, 0, err
		}
	}

	p.step(8, "Batch normalization")
	if def, err = p.YesNo("Do you want default values for batch normalization (y or n): "); err != nil {
		return nil, 0, err
	}
	for i := 0; i < n && !def; i++ {
		prompt := fmt.Sprintf("Please enter 1 or 0 for batch normalization after convolution %d: ", i+1)
		if layers[i].BatchNorm, err = p.Flag(prompt, Constraint{}); err != nil {
			return nil, 0, err
		}
	}

	for i, l := range layers {
		p.Printf("%2d: %s\n", i, l)
	}
	p.Printf("Dropout: %g\n", dropout)

	return layers, dropout, nil
}

// steps 9 through 12
func collectRecurrent(p *Prompter, cfg *mfgnet.Config) error {
	p.Println()
	p.Println("LSTM Network")
	p.Println()

	r := &cfg.Recurrent
	var err error

	p.step(9, "LSTM hidden size")
	c := AtLeast(4).WithDefault(fmt.Sprint(r.Hidden))
	if r.Hidden, err = p.Int(fmt.Sprintf("Please enter the hidden size (press enter for %d): ", r.Hidden), c); err != nil {
		return err
	}

	p.step(10, "LSTM number of layers")
	c = Positive.WithDefault(fmt.Sprint(r.Layers))
	if r.Layers, err = p.Int(fmt.Sprintf("Please enter the number of layers (press enter for %d): ", r.Layers), c); err != nil {
		return err
	}

	p.step(11, "LSTM bidirectional")
	prompt := "Please enter 1 for a bidirectional LSTM, else 0 (press enter for 0): "
	if r.Bidirectional, err = p.Flag(prompt, Constraint{Default: "0"}); err != nil {
		return err
	}

	p.step(12, "LSTM output size")
	prompt = "Please enter the output size: 1 for regression, else the number of classes: "
	r.Output, err = p.Int(prompt, Positive)
	return err
}

// steps 13 through 18
func collectTraining(p *Prompter, cfg *mfgnet.Config) error {
	var err error

	p.step(13, "Batch size")
	if cfg.BatchSize, err = p.Int("Please enter the batch size: ", Positive); err != nil {
		return err
	}

	p.step(14, "Validation set size")
	c := Fraction.WithDefault(fmt.Sprint(cfg.ValSize))
	prompt := fmt.Sprintf("Please enter the validation set size, between 0 and 1 (press enter for %g): ", cfg.ValSize)
	if cfg.ValSize, err = p.Float(prompt, c); err != nil {
		return err
	}

	p.step(15, "Loss function")
	loss, err := p.Choice("Please enter the loss function", []string{"CrossEntropy", "L1", "SmoothL1", "MSE"}, 0)
	if err != nil {
		return err
	}
	cfg.Loss = mfgnet.Losses[loss]

	p.step(16, "Optimizer")
	opt, err := p.Choice("Please enter the optimizer (press enter for Adam)", []string{"Adam", "SGD"}, 1)
	if err != nil {
		return err
	}
	cfg.Optimizer = []string{mfgnet.OptimizerAdam, mfgnet.OptimizerSGD}[opt]

	c = Positive.WithDefault(fmt.Sprint(cfg.LearningRate))
	prompt = fmt.Sprintf("Please enter the learning rate (press enter for %g): ", cfg.LearningRate)
	if cfg.LearningRate, err = p.Float(prompt, c); err != nil {
		return err
	}

	p.step(17, "Scheduler")
	sched, err := p.Choice("Please enter the scheduler (press enter for none)", []string{"None", "StepLR", "MultiStepLR"}, 1)
	if err != nil {
		return err
	}

	cfg.Schedule = mfgnet.ScheduleConfig{Type: []string{mfgnet.ScheduleNone, mfgnet.ScheduleStep, mfgnet.ScheduleMultiStep}[sched]}
	switch cfg.Schedule.Type {
	case mfgnet.ScheduleStep:
		if cfg.Schedule.StepSize, err = p.Int("Please enter a step value: ", Positive); err != nil {
			return err
		}
	case mfgnet.ScheduleMultiStep:
		for {
			ms, err := p.IntList("Please enter the milestone epochs (for example 10,20): ", 0, Positive)
			if err != nil {
				return err
			}

			if increasing(ms) {
				cfg.Schedule.Milestones = ms
				break
			}
			p.Println("Milestones must be increasing")
		}
	}

	if cfg.Schedule.Type != mfgnet.ScheduleNone {
		if cfg.Schedule.Gamma, err = p.Float("Please enter a gamma value (multiplying factor): ", Positive); err != nil {
			return err
		}
	}

	p.step(18, "Number of epochs")
	cfg.Epochs, err = p.Int("Please enter the number of epochs to train the model: ", Positive)
	return err
}

func increasing(vs []int) bool {
	for i := 1; i < len(vs); i++ {
		if vs[i] <= vs[i-1] {
			return false
		}
	}
	return true
}
