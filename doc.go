// Package mfgnet provides a small framework for training convolutional and recurrent networks
// on sequences of images, along with the configuration record that describes them.
//
// Layers
//
// Every operation in a network is a Layer, operating on batches of utils.Tensor. The Layers
// themselves live in the subpackage "operators"; a Sequential chains them, checking their
// dimensions as they are added:
//
//		seq, err := mfgnet.NewSequential([]int{1, 28, 28},
//			operators.Conv2D(1, 8, mfgnet.Square(3), mfgnet.Square(1), mfgnet.Pair{}, rng),
//			operators.ReLU(),
//			operators.Flatten(),
//		)
//
// Cost functions, optimizers, learning-rate schedules, and weight penalties are registered by
// name from the subpackages "costfuncs", "optimizers", "hyperparams", and "penalties", which
// must be imported for their names to be available:
//
//		import _ "github.com/sharnoff/mfgnet/costfuncs"
//
// Configuration
//
// A Config describes the whole CNN+LSTM network and its training. Config.Shapes gives the size
// of the images after each convolutional layer, and Config.Validate checks that none of them
// collapse. Configs can be saved and loaded as JSON.
//
// Training
//
// A Trainer runs the epoch loop given a set of TrainArgs, alternating a training pass and a
// validation pass, and stepping the learning-rate schedule after each validation:
//
//		t, err := mfgnet.NewTrainer(mfgnet.TrainArgs{...})
//		if err != nil {
//			return err
//		}
//
//		err = t.Run()
//		hist := t.History()
//
// The subpackage "cnnlstm" assembles a network from a Config and runs all of these steps.
package mfgnet
