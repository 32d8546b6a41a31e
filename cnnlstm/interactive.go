package cnnlstm

import (
	"io"
	"strings"

	"github.com/sharnoff/mfgnet"
	"github.com/sharnoff/mfgnet/climanager"
)

// Interactive asks for a Config on w, reading the answers from r, then assembles the network,
// trains it on the dataset, saves the loss and accuracy graphs to the working directory, and
// asks whether to save the weights. Progress is logged to w.
//
// It returns climanager.ErrQuit if the user quits while answering.
func Interactive(data *mfgnet.Dataset, r io.Reader, w io.Writer) (*Pipeline, error) {
	prompter := climanager.NewPrompter(r, w)

	cfg, err := climanager.CollectConfig(prompter)
	if err != nil {
		return nil, err
	}

	return run(prompter, cfg, data)
}

// run goes through every stage of a Pipeline built from an already collected Config
func run(prompter *climanager.Prompter, cfg mfgnet.Config, data *mfgnet.Dataset) (*Pipeline, error) {
	p, err := New(cfg, data)
	if err != nil {
		return nil, err
	}

	p.Out = prompter.Writer()
	p.Logger.Out = prompter.Writer()

	if err = p.Assemble(); err != nil {
		return p, err
	}

	prompter.Println(strings.Repeat("=", 25))
	prompter.Println(p.Summary())

	if err = p.Train(); err != nil {
		return p, err
	}

	save, err := prompter.YesNo("Do you want to save the model weights? (y/n): ")
	if err != nil {
		return p, err
	}

	if err = p.Report(ReportOptions{Plots: true, SaveWeights: save}); err != nil {
		return p, err
	}

	prompter.Println("Call Predict to make predictions on new data")
	prompter.Println()
	prompter.Println("=== End of training ===")

	return p, nil
}

// Run goes through every stage of a Pipeline for a Config that was not collected
// interactively, reading only the question of whether to save the weights from r.
func Run(cfg mfgnet.Config, data *mfgnet.Dataset, r io.Reader, w io.Writer) (*Pipeline, error) {
	return run(climanager.NewPrompter(r, w), cfg, data)
}
