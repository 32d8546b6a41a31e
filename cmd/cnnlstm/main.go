// Command cnnlstm trains a CNN+LSTM network on a JSON dataset of image sequences.
//
// Usage:
//	cnnlstm [opts] <data.json>
//
// The dataset file has the form
//	{"shape": [N, T, H, W], "inputs": [...], "targets": [[...], ...]}
// where inputs holds the N*T*H*W values in row-major order, and each target is either a single
// class index (for cross-entropy) or a vector of regression targets.
//
// Without -config, every setting is asked for on the terminal.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/sharnoff/mfgnet"
	"github.com/sharnoff/mfgnet/climanager"
	"github.com/sharnoff/mfgnet/cnnlstm"
	"github.com/sharnoff/mfgnet/utils"
	"github.com/sirupsen/logrus"
)

type dataFile struct {
	Shape   []int
	Inputs  []float64
	Targets [][]float64
}

func loadData(path string) (*mfgnet.Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "Failed to open dataset %q", path)
	}
	defer f.Close()

	var d dataFile
	if err = json.NewDecoder(f).Decode(&d); err != nil {
		return nil, errors.Wrapf(err, "Failed to decode dataset %q", path)
	}

	if len(d.Shape) != 4 {
		return nil, errors.Errorf("Dataset shape must be [samples, time steps, height, width] (got %v)", d.Shape)
	} else if n := utils.Prod(d.Shape); n != len(d.Inputs) {
		return nil, mfgnet.SizeMismatchError{Expected: n, Got: len(d.Inputs), What: "dataset inputs"}
	}

	t, err := utils.FromValues(d.Inputs, d.Shape...)
	if err != nil {
		return nil, err
	}

	return mfgnet.FromTensor(t, d.Targets)
}

func main() {
	configPath := flag.String("config", "", "JSON config file; asks interactively if empty")
	epochs := flag.Int("epochs", 0, "override the number of epochs in the config file")
	seed := flag.Int64("seed", 0, "override the random seed in the config file")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Println("Usage: cnnlstm [opts] <data.json>")
		flag.PrintDefaults()
		os.Exit(1)
	}

	log := logrus.New()

	data, err := loadData(flag.Arg(0))
	if err != nil {
		log.Fatal(err)
	}

	log.WithFields(logrus.Fields{
		"samples": data.Len(),
		"shape":   data.SampleShape,
	}).Info("Loaded dataset")

	if *configPath == "" {
		_, err = cnnlstm.Interactive(data, os.Stdin, os.Stdout)
	} else {
		var cfg mfgnet.Config
		if cfg, err = mfgnet.LoadConfig(*configPath); err != nil {
			log.Fatal(err)
		}

		if *epochs > 0 {
			cfg.Epochs = *epochs
		}
		if *seed != 0 {
			cfg.Seed = *seed
		}

		fmt.Println(cfg)
		_, err = cnnlstm.Run(cfg, data, os.Stdin, os.Stdout)
	}

	if errors.Cause(err) == climanager.ErrQuit {
		return
	} else if err != nil {
		log.Fatal(err)
	}
}
