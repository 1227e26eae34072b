// SPDX-License-Identifier: Unlicense OR MIT

// Package pass implements an ordered list of render passes executed once
// per frame.
package pass

import "fmt"

// Pass is a unit of rendering work.
type Pass interface {
	Execute() error
}

// Func adapts an ordinary function to a Pass.
type Func func() error

func (f Func) Execute() error {
	return f()
}

// Graph runs its passes sequentially in the order they were added.
// Execution stops at the first failing pass; the passes after it do not
// run that frame. The zero value is an empty graph.
type Graph struct {
	passes []Pass
}

// Add appends p. Passes cannot be removed.
func (g *Graph) Add(p Pass) {
	g.passes = append(g.passes, p)
}

// Execute runs every pass once in insertion order. It stops at the first
// failing pass.
func (g *Graph) Execute() error {
	for i, p := range g.passes {
		if err := p.Execute(); err != nil {
			return fmt.Errorf("pass %d: %w", i, err)
		}
	}
	return nil
}

func (g *Graph) Len() int {
	return len(g.passes)
}
