// Command linreg fits a linear regression to a CSV file of numbers.
//
// Usage:
//	linreg [opts] <data.csv>
//
// Each line holds the attributes of one sample followed by its label. With -header, the first
// line is skipped.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/sharnoff/mfgnet/linreg"
	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/mat"
)

func readCSV(path string, header bool) (*mat.Dense, []float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "Failed to open %q", path)
	}
	defer f.Close()

	var (
		values []float64
		labels []float64
		cols   = -1
	)

	scanner := bufio.NewScanner(f)
	for line := 1; scanner.Scan(); line++ {
		text := strings.TrimSpace(scanner.Text())
		if text == "" || (header && line == 1) {
			continue
		}

		fields := strings.Split(text, ",")
		if cols == -1 {
			if len(fields) < 2 {
				return nil, nil, errors.Errorf("Line %d: need at least one attribute and a label", line)
			}
			cols = len(fields) - 1
		} else if len(fields) != cols+1 {
			return nil, nil, errors.Errorf("Line %d: expected %d fields, got %d", line, cols+1, len(fields))
		}

		for i, s := range fields {
			v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
			if err != nil {
				return nil, nil, errors.Wrapf(err, "Line %d, field %d", line, i+1)
			}

			if i == cols {
				labels = append(labels, v)
			} else {
				values = append(values, v)
			}
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, nil, errors.Wrapf(err, "Failed to read %q", path)
	} else if len(labels) == 0 {
		return nil, nil, errors.Errorf("%q has no samples", path)
	}

	return mat.NewDense(len(labels), cols, values), labels, nil
}

func main() {
	header := flag.Bool("header", false, "skip the first line of the file")
	testSize := flag.Float64("test", linreg.DefaultTestSize, "fraction of samples held out for testing")
	intercept := flag.Bool("intercept", true, "fit an intercept")
	normalize := flag.Bool("normalize", false, "center and scale the attributes before fitting")
	seed := flag.Int64("seed", 0, "random seed for the train/test split")
	graph := flag.Bool("graph", false, "save the fit to regression.png (single attribute only)")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Println("Usage: linreg [opts] <data.csv>")
		flag.PrintDefaults()
		os.Exit(1)
	}

	log := logrus.New()

	x, y, err := readCSV(flag.Arg(0), *header)
	if err != nil {
		log.Fatal(err)
	}

	r := linreg.New(x, y).
		SetTestSize(*testSize).
		SetFitIntercept(*intercept).
		SetNormalize(*normalize).
		SetSeed(*seed)
	r.Logger = log

	if err = r.Run(*graph); err != nil {
		log.Fatal(err)
	}

	b, _ := r.Intercept()
	mse, _ := r.MeanSquaredError()
	r2, _ := r.R2Score()
	rs, _ := r.RScore()

	fmt.Printf("%-14s: %v\n", "Coefficients", r.Coefficients())
	fmt.Printf("%-14s: %g\n", "Intercept", b)
	fmt.Printf("%-14s: %g\n", "MSE", mse)
	fmt.Printf("%-14s: %g\n", "R2", r2)
	fmt.Printf("%-14s: %g\n", "R", rs)
}
