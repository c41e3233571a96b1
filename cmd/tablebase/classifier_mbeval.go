//go:build cgo && mbeval

package main

import (
	"github.com/discochess/tablebase/internal/mbinfo"
	"github.com/discochess/tablebase/internal/mbinfo/mbeval"
)

func newClassifier() (mbinfo.Classifier, error) {
	return mbeval.New(), nil
}
