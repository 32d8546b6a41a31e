package mfgnet

import (
	"encoding/json"
	"os"

	"github.com/pkg/errors"
)

type savedParam struct {
	Name   string
	Values []float64
}

// SaveParams writes the values of the given Params to the file at path as JSON, in order.
// Gradients are not saved.
func SaveParams(path string, params []*Param) error {
	saved := make([]savedParam, len(params))
	for i, p := range params {
		saved[i] = savedParam{p.Name, p.Values}
	}

	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "Failed to create file %q", path)
	}

	if err = json.NewEncoder(f).Encode(saved); err != nil {
		f.Close()
		return errors.Wrapf(err, "Failed to encode JSON to file %q", path)
	}

	if err = f.Close(); err != nil {
		return errors.Wrapf(err, "Failed to close file %q", path)
	}

	return nil
}

// LoadParams reads values saved by SaveParams into the given Params. The saved Params must
// match the given ones in number, order, name, and size.
func LoadParams(path string, params []*Param) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrapf(err, "Failed to open file %q", path)
	}

	defer f.Close()

	var saved []savedParam
	if err = json.NewDecoder(f).Decode(&saved); err != nil {
		return errors.Wrapf(err, "Failed to decode JSON from file %q", path)
	}

	if len(saved) != len(params) {
		return SizeMismatchError{len(params), len(saved), "number of saved params"}
	}

	for i, p := range params {
		if saved[i].Name != p.Name {
			return errors.Errorf("Saved param %d is %q, expected %q", i, saved[i].Name, p.Name)
		} else if len(saved[i].Values) != len(p.Values) {
			return errors.Wrapf(SizeMismatchError{len(p.Values), len(saved[i].Values), "param values"}, "Param %q", p.Name)
		}
	}

	for i, p := range params {
		copy(p.Values, saved[i].Values)
	}

	return nil
}
