package memtablebasefx

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"
	"go.uber.org/zap"

	"github.com/discochess/tablebase"
	"github.com/discochess/tablebase/internal/codec/noopcodec"
	"github.com/discochess/tablebase/internal/mbinfo"
	"github.com/discochess/tablebase/internal/mbinfo/fake"
	"github.com/discochess/tablebase/internal/store/memstore"
	"github.com/discochess/tablebase/internal/tablefile"
)

func newClassifier() mbinfo.Classifier {
	return fake.New(func(req mbinfo.Request) (mbinfo.Info, bool) {
		info := fake.Info(0)
		info.Parities = []mbinfo.ParityCandidate{{Index: 2}}
		return info, true
	})
}

func TestModule(t *testing.T) {
	data, err := tablefile.Encode([]byte{0, 0, 9, 0}, noopcodec.New(), 4)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}

	var (
		tb         *tablebase.Tablebase
		classifier mbinfo.Classifier
	)
	app := fxtest.New(t,
		fx.Provide(zap.NewNop, newClassifier),
		Module,
		fx.Invoke(func(st *memstore.Store) {
			st.SetFile("kqk_out/kqk_w_0.mb", data)
		}),
		fx.Populate(&tb, &classifier),
	)
	app.RequireStart()

	if paths := classifier.(*fake.Classifier).Paths(); len(paths) != 1 || paths[0] != ClassifierDir {
		t.Errorf("classifier paths = %v, want [%s]", paths, ClassifierDir)
	}

	if got := len(tb.Tables()); got != 1 {
		t.Errorf("Tables() = %d, want 1", got)
	}

	v, err := tb.ProbeFEN(context.Background(), "8/8/4k3/8/8/8/8/Q3K3 w - - 0 1")
	if err != nil {
		t.Fatalf("ProbeFEN() error = %v", err)
	}
	if v.DTC != 9 {
		t.Errorf("ProbeFEN() = %v, want +9", v)
	}

	app.RequireStop()

	if _, err := tb.ProbeFEN(context.Background(), "8/8/4k3/8/8/8/8/Q3K3 w - - 0 1"); !errors.Is(err, tablebase.ErrClosed) {
		t.Errorf("ProbeFEN() after stop error = %v, want ErrClosed", err)
	}
}
