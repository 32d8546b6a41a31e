// Package plotting draws training curves and regression fits to image files with gonum/plot.
// The format is chosen from the file extension, as by plot.Save.
package plotting

import (
	"math"

	"github.com/pkg/errors"
	"github.com/sharnoff/mfgnet"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

const (
	width  = 6 * vg.Inch
	height = 4 * vg.Inch
)

// Series is a named sequence of values, one per epoch.
type Series struct {
	Name   string
	Values []float64
}

func newPlot(title, xLabel, yLabel string) *plot.Plot {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = xLabel
	p.Y.Label.Text = yLabel
	p.Legend.Top = true
	p.Add(plotter.NewGrid())
	return p
}

// Curves plots each Series against the epoch number, starting at 1, and saves the plot to path.
func Curves(path, title, yLabel string, series ...Series) error {
	p := newPlot(title, "Epoch", yLabel)

	for i, s := range series {
		if len(s.Values) == 0 {
			return errors.Errorf("Series %q has no values", s.Name)
		}

		pts := make(plotter.XYs, len(s.Values))
		for j, v := range s.Values {
			pts[j].X, pts[j].Y = float64(j+1), v
		}

		l, err := plotter.NewLine(pts)
		if err != nil {
			return errors.Wrapf(err, "Failed to make line for %q", s.Name)
		}

		l.Width = 2
		l.Color = plotutil.Color(i)
		p.Add(l)
		p.Legend.Add(s.Name, l)
	}

	if err := p.Save(width, height, path); err != nil {
		return errors.Wrapf(err, "Failed to save plot to %q", path)
	}

	return nil
}

// Loss plots the training and validation loss of each epoch.
func Loss(path string, h mfgnet.History) error {
	return Curves(path, "Loss", "Loss",
		Series{"Training", h.TrainLoss},
		Series{"Validation", h.ValLoss},
	)
}

// Accuracy plots the training and validation accuracy of each epoch. It returns an error if the
// History has no accuracy.
func Accuracy(path string, h mfgnet.History) error {
	if len(h.TrainAcc) == 0 {
		return errors.Errorf("History has no accuracy")
	}

	return Curves(path, "Accuracy", "Accuracy (%)",
		Series{"Training", h.TrainAcc},
		Series{"Validation", h.ValAcc},
	)
}

// Regression plots the points (xs[i], ys[i]) and the line y = slope*x + intercept across their
// range, and saves the plot to path.
func Regression(path string, xs, ys []float64, slope, intercept float64) error {
	if len(xs) != len(ys) {
		return mfgnet.SizeMismatchError{Expected: len(xs), Got: len(ys), What: "plotted labels"}
	} else if len(xs) == 0 {
		return errors.Errorf("No points to plot")
	}

	p := newPlot("Linear regression", "Attribute", "Label")

	pts := make(plotter.XYs, len(xs))
	min, max := math.Inf(1), math.Inf(-1)
	for i := range xs {
		pts[i].X, pts[i].Y = xs[i], ys[i]
		min, max = math.Min(min, xs[i]), math.Max(max, xs[i])
	}

	sc, err := plotter.NewScatter(pts)
	if err != nil {
		return errors.Wrap(err, "Failed to make scatter plot")
	}
	sc.Color = plotutil.Color(0)

	fit, err := plotter.NewLine(plotter.XYs{
		{X: min, Y: slope*min + intercept},
		{X: max, Y: slope*max + intercept},
	})
	if err != nil {
		return errors.Wrap(err, "Failed to make fit line")
	}
	fit.Width = 2
	fit.Color = plotutil.Color(1)

	p.Add(sc, fit)
	p.Legend.Add("Data", sc)
	p.Legend.Add("Fit", fit)

	if err := p.Save(width, height, path); err != nil {
		return errors.Wrapf(err, "Failed to save plot to %q", path)
	}

	return nil
}
