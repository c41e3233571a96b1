//go:build !(cgo && mbeval)

package main

import (
	"errors"

	"github.com/discochess/tablebase/internal/mbinfo"
)

var errNoClassifier = errors.New("built without the mbeval classifier; rebuild with cgo and -tags mbeval to probe positions")

func newClassifier() (mbinfo.Classifier, error) {
	return nil, errNoClassifier
}
