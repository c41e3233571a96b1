// Package fake provides a scripted mbinfo.Classifier for tests.
package fake

import (
	"sync"

	"github.com/discochess/tablebase/internal/material"
	"github.com/discochess/tablebase/internal/mbinfo"
)

// Compile-time check that Classifier implements mbinfo.Classifier.
var _ mbinfo.Classifier = (*Classifier)(nil)

// Func computes the classifier output for a request.
type Func func(req mbinfo.Request) (mbinfo.Info, bool)

// Classifier answers Classify calls with a script.
type Classifier struct {
	mu    sync.Mutex
	fn    Func
	paths []string
	calls []mbinfo.Request
}

// New creates a classifier that delegates to fn.
// A nil fn makes every Classify call fail.
func New(fn Func) *Classifier {
	return &Classifier{fn: fn}
}

// AddPath records dir.
func (c *Classifier) AddPath(dir string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.paths = append(c.paths, dir)
}

// Classify records req and returns the scripted result.
func (c *Classifier) Classify(req mbinfo.Request) (mbinfo.Info, bool) {
	c.mu.Lock()
	c.calls = append(c.calls, req)
	fn := c.fn
	c.mu.Unlock()

	if fn == nil {
		return mbinfo.Info{}, false
	}
	return fn(req)
}

// Paths returns the directories passed to AddPath.
func (c *Classifier) Paths() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.paths...)
}

// Calls returns the requests passed to Classify.
func (c *Classifier) Calls() []mbinfo.Request {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]mbinfo.Request(nil), c.calls...)
}

// Info returns an Info with every per pawn file index set to
// mbinfo.NotApplicable.
func Info(kk uint32) mbinfo.Info {
	na := mbinfo.NotApplicable
	return mbinfo.Info{
		KKIndex: kk,
		OP11:    na, BP11: na, OP21: na, OP12: na, OP22: na,
		DP22: na, OP31: na, OP13: na, OP41: na, OP14: na,
		OP32: na, OP23: na, OP33: na, OP42: na, OP24: na,
	}
}

// Material returns the material signature of the request's board.
func Material(req mbinfo.Request) material.Signature {
	var s material.Signature
	for _, code := range req.Board {
		switch {
		case code > 0:
			s[material.White][code-1]++
		case code < 0:
			s[material.Black][-code-1]++
		}
	}
	return s
}
