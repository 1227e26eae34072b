// SPDX-License-Identifier: Unlicense OR MIT

package pass

import (
	"errors"
	"reflect"
	"testing"
)

type recordingPass struct {
	name  string
	calls *[]string
}

func (p recordingPass) Execute() error {
	*p.calls = append(*p.calls, p.name)
	return nil
}

func TestExecuteOrder(t *testing.T) {
	var calls []string
	var g Graph
	g.Add(recordingPass{"A", &calls})
	g.Add(recordingPass{"B", &calls})
	g.Add(Func(func() error {
		calls = append(calls, "C")
		return nil
	}))
	if g.Len() != 3 {
		t.Fatalf("Len() = %d", g.Len())
	}
	for frame := 0; frame < 2; frame++ {
		calls = nil
		if err := g.Execute(); err != nil {
			t.Fatal(err)
		}
		if want := []string{"A", "B", "C"}; !reflect.DeepEqual(calls, want) {
			t.Errorf("frame %d: calls = %v, want %v", frame, calls, want)
		}
	}
}

func TestExecuteStopsAtError(t *testing.T) {
	var calls []string
	errBoom := errors.New("boom")
	var g Graph
	g.Add(recordingPass{"A", &calls})
	g.Add(Func(func() error { return errBoom }))
	g.Add(recordingPass{"C", &calls})
	err := g.Execute()
	if !errors.Is(err, errBoom) {
		t.Fatalf("err = %v, want %v", err, errBoom)
	}
	if err.Error() != "pass 1: boom" {
		t.Errorf("err = %q", err)
	}
	if want := []string{"A"}; !reflect.DeepEqual(calls, want) {
		t.Errorf("calls = %v, want %v", calls, want)
	}
}

func TestEmpty(t *testing.T) {
	var g Graph
	if err := g.Execute(); err != nil {
		t.Error(err)
	}
}
