// Package linreg fits ordinary least-squares linear regressions on a random train/test split of
// a dataset, and reports how well the fit predicts the held-out samples.
//
// A LinRegression holds its inputs and the results of its most recent successful Run. Changing
// any input discards the results.
package linreg

import (
	"math"
	"math/rand"

	"github.com/pkg/errors"
	"github.com/sharnoff/mfgnet"
	"github.com/sharnoff/mfgnet/plotting"
	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// ErrFitFailed is returned (wrapped with its cause) by Run when the least-squares problem could
// not be solved, for example because the training attributes are rank-deficient.
var ErrFitFailed = errors.New("Failed to fit regression model")

// DefaultTestSize is the fraction of samples held out for testing by New.
const DefaultTestSize = 0.25

// LinRegression is a linear regression of Labels on the columns of Attributes.
type LinRegression struct {
	attributes   *mat.Dense
	labels       []float64
	testSize     float64
	fitIntercept bool
	normalize    bool
	seed         int64

	// Logger receives the split sizes, scores, and fitting failures. It defaults to
	// logrus.New().
	Logger *logrus.Logger

	fit *result
}

type result struct {
	coef      []float64
	intercept float64

	mse float64
	r2  float64
	r   float64

	testX *mat.Dense
	testY []float64
	pred  []float64
}

// New returns a LinRegression of the given data with the default settings: a test size of 0.25,
// an intercept, and no normalization. Either argument may be nil and set later.
func New(attributes *mat.Dense, labels []float64) *LinRegression {
	return &LinRegression{
		attributes:   attributes,
		labels:       labels,
		testSize:     DefaultTestSize,
		fitIntercept: true,
		Logger:       logrus.New(),
	}
}

func (r *LinRegression) Attributes() *mat.Dense { return r.attributes }
func (r *LinRegression) Labels() []float64      { return r.labels }
func (r *LinRegression) TestSize() float64      { return r.testSize }
func (r *LinRegression) FitIntercept() bool     { return r.fitIntercept }
func (r *LinRegression) Normalize() bool        { return r.normalize }
func (r *LinRegression) Seed() int64            { return r.seed }

// SetAttributes sets the independent variables, one sample per row.
func (r *LinRegression) SetAttributes(a *mat.Dense) *LinRegression {
	r.attributes, r.fit = a, nil
	return r
}

// SetLabels sets the dependent variable, one value per sample.
func (r *LinRegression) SetLabels(l []float64) *LinRegression {
	r.labels, r.fit = l, nil
	return r
}

// SetTestSize sets the fraction of samples held out for testing. It is checked by Run.
func (r *LinRegression) SetTestSize(f float64) *LinRegression {
	r.testSize, r.fit = f, nil
	return r
}

func (r *LinRegression) SetFitIntercept(b bool) *LinRegression {
	r.fitIntercept, r.fit = b, nil
	return r
}

// SetNormalize sets whether each attribute is centered and scaled to unit length before
// fitting. It has no effect without an intercept.
func (r *LinRegression) SetNormalize(b bool) *LinRegression {
	r.normalize, r.fit = b, nil
	return r
}

// SetSeed sets the seed of the train/test split.
func (r *LinRegression) SetSeed(s int64) *LinRegression {
	r.seed, r.fit = s, nil
	return r
}

// Fitted returns whether the most recent Run succeeded.
func (r *LinRegression) Fitted() bool {
	return r.fit != nil
}

// Coefficients returns a copy of the fitted coefficients, one per attribute, or nil if the
// regression has not been fitted.
func (r *LinRegression) Coefficients() []float64 {
	if r.fit == nil {
		return nil
	}
	return append([]float64(nil), r.fit.coef...)
}

// Intercept returns the fitted intercept, which is zero if FitIntercept is false.
func (r *LinRegression) Intercept() (float64, error) {
	if r.fit == nil {
		return 0, mfgnet.ErrNotTrained
	}
	return r.fit.intercept, nil
}

// MeanSquaredError returns the mean squared error of the predictions on the test set.
func (r *LinRegression) MeanSquaredError() (float64, error) {
	if r.fit == nil {
		return 0, mfgnet.ErrNotTrained
	}
	return r.fit.mse, nil
}

// R2Score returns the coefficient of determination of the predictions on the test set.
func (r *LinRegression) R2Score() (float64, error) {
	if r.fit == nil {
		return 0, mfgnet.ErrNotTrained
	}
	return r.fit.r2, nil
}

// RScore returns the square root of R2Score. It is NaN if R2Score is negative.
func (r *LinRegression) RScore() (float64, error) {
	if r.fit == nil {
		return 0, mfgnet.ErrNotTrained
	}
	return r.fit.r, nil
}

func (r *LinRegression) checkInputs() error {
	if r.attributes == nil {
		return errors.Errorf("Attributes are missing")
	} else if r.labels == nil {
		return errors.Errorf("Labels are missing")
	}

	rows, _ := r.attributes.Dims()
	if rows != len(r.labels) {
		return mfgnet.SizeMismatchError{Expected: rows, Got: len(r.labels), What: "number of labels"}
	} else if r.testSize <= 0 || r.testSize >= 1 || math.IsNaN(r.testSize) {
		return errors.Errorf("Test size must be in (0, 1) (got %g)", r.testSize)
	}

	return nil
}

// split returns the row indexes of the training and test sets. The test set has
// ceil(n * testSize) samples.
func (r *LinRegression) split() (train, test []int, err error) {
	n := len(r.labels)
	nTest := int(math.Ceil(float64(n) * r.testSize))
	if nTest >= n {
		return nil, nil, errors.Wrapf(mfgnet.ErrEmptySplit, "%d samples with test size %g", n, r.testSize)
	}

	order := rand.New(rand.NewSource(r.seed)).Perm(n)
	return order[nTest:], order[:nTest], nil
}

func (r *LinRegression) rows(idx []int) (*mat.Dense, []float64) {
	_, c := r.attributes.Dims()
	x := mat.NewDense(len(idx), c, nil)
	y := make([]float64, len(idx))

	for i, j := range idx {
		x.SetRow(i, r.attributes.RawRowView(j))
		y[i] = r.labels[j]
	}

	return x, y
}

// Run splits the data, fits the regression on the training set, and scores it on the test set.
// If graph is true, Graph is called with "regression.png" afterwards.
//
// If fitting fails, the previous results are discarded and the error wraps ErrFitFailed.
func (r *LinRegression) Run(graph bool) error {
	if r.Logger == nil {
		r.Logger = logrus.New()
	}

	if err := r.checkInputs(); err != nil {
		return err
	}

	trainIdx, testIdx, err := r.split()
	if err != nil {
		return err
	}

	r.Logger.WithFields(logrus.Fields{
		"train": len(trainIdx),
		"test":  len(testIdx),
	}).Info("Split regression data")

	trainX, trainY := r.rows(trainIdx)
	coef, intercept, err := solve(trainX, trainY, r.fitIntercept, r.normalize)
	if err != nil {
		r.fit = nil
		r.Logger.WithError(err).Error("Failed to fit regression model; check the inputs and run again")
		return errors.Wrap(ErrFitFailed, err.Error())
	}

	res := &result{coef: coef, intercept: intercept}
	res.testX, res.testY = r.rows(testIdx)
	res.pred = predict(res.testX, coef, intercept)

	d := floats.Distance(res.pred, res.testY, 2)
	res.mse = d * d / float64(len(res.testY))
	res.r2 = stat.RSquaredFrom(res.pred, res.testY, nil)
	res.r = math.Sqrt(res.r2)

	r.fit = res

	r.Logger.WithFields(logrus.Fields{
		"mse": res.mse,
		"r2":  res.r2,
		"r":   res.r,
	}).Info("Fitted regression model")

	if graph {
		return r.Graph("regression.png")
	}

	return nil
}

// solve finds the least-squares coefficients of y on the columns of x. With an intercept, x and
// y are centered first and the intercept recovered from their means; normalize then also
// scales each centered column to unit length.
func solve(x *mat.Dense, y []float64, intercept, normalize bool) (coef []float64, b float64, err error) {
	n, c := x.Dims()
	if n == 0 {
		return nil, 0, errors.Errorf("No training samples")
	}

	a := mat.DenseCopyOf(x)
	ys := append([]float64(nil), y...)

	means := make([]float64, c)
	scales := make([]float64, c)
	for j := range scales {
		scales[j] = 1
	}

	var yMean float64
	if intercept {
		col := make([]float64, n)
		for j := 0; j < c; j++ {
			mat.Col(col, j, a)
			means[j] = stat.Mean(col, nil)
			floats.AddConst(-means[j], col)

			if normalize {
				if norm := floats.Norm(col, 2); norm != 0 {
					scales[j] = norm
					floats.Scale(1/norm, col)
				}
			}

			a.SetCol(j, col)
		}

		yMean = stat.Mean(ys, nil)
		floats.AddConst(-yMean, ys)
	}

	var w mat.Dense
	if err = w.Solve(a, mat.NewVecDense(n, ys)); err != nil {
		return nil, 0, errors.Wrap(err, "Least squares")
	}

	coef = make([]float64, c)
	for j := range coef {
		coef[j] = w.At(j, 0) / scales[j]
		if math.IsNaN(coef[j]) || math.IsInf(coef[j], 0) {
			return nil, 0, errors.Errorf("Coefficient %d is %g", j, coef[j])
		}
	}

	if intercept {
		b = yMean - floats.Dot(means, coef)
	}

	return coef, b, nil
}

func predict(x *mat.Dense, coef []float64, intercept float64) []float64 {
	n, _ := x.Dims()
	out := make([]float64, n)
	for i := range out {
		out[i] = floats.Dot(x.RawRowView(i), coef) + intercept
	}
	return out
}

// Predict returns the fitted model's prediction for each row of x.
func (r *LinRegression) Predict(x *mat.Dense) ([]float64, error) {
	if r.fit == nil {
		return nil, mfgnet.ErrNotTrained
	} else if x == nil {
		return nil, errors.Errorf("Attributes to predict are nil")
	}

	if _, c := x.Dims(); c != len(r.fit.coef) {
		return nil, mfgnet.SizeMismatchError{Expected: len(r.fit.coef), Got: c, What: "number of attributes"}
	}

	// RawRowView requires a contiguous matrix
	return predict(mat.DenseCopyOf(x), r.fit.coef, r.fit.intercept), nil
}

// Graph plots the test set and the fitted line to path. Only single-attribute regressions can
// be graphed.
func (r *LinRegression) Graph(path string) error {
	if r.fit == nil {
		return mfgnet.ErrNotTrained
	} else if len(r.fit.coef) != 1 {
		r.Logger.Warn("Graphing is supported for one attribute only")
		return errors.Errorf("Can't graph regression with %d attributes", len(r.fit.coef))
	}

	xs := mat.Col(nil, 0, r.fit.testX)
	return plotting.Regression(path, xs, r.fit.testY, r.fit.coef[0], r.fit.intercept)
}
