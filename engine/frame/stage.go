package frame

import "fmt"

// Stage compiles part of a frame into a command tree.
type Stage interface {
	// Name returns the stage's label for logs and dumps.
	Name() string

	// Compile inserts the stage's draws at passes starting at passStart.
	//
	// Parameters:
	//   - fl: the frame's geometry and lights
	//   - tree: the tree to insert into
	//   - passStart: the first pass index the stage may use
	//
	// Returns:
	//   - int: the next free pass index; passStart if the stage claimed no pass
	Compile(fl *FrameList, tree *CommandTree, passStart int) int
}

// Pipeline is an ordered list of stages composed once per camera or output. Each stage gets
// the pass range following the previous stage's, so pass order is stage order.
type Pipeline struct {
	stages []Stage
}

// NewPipeline creates a pipeline running stages in the given order.
func NewPipeline(stages ...Stage) *Pipeline {
	return &Pipeline{stages: stages}
}

// Stages returns the stages in run order.
func (p *Pipeline) Stages() []Stage {
	return p.stages
}

// Compile runs every stage in order and returns the next free pass index.
func (p *Pipeline) Compile(fl *FrameList, tree *CommandTree) int {
	pass := 0
	for _, s := range p.stages {
		next := s.Compile(fl, tree, pass)
		if next < pass {
			panic(fmt.Sprintf("frame: stage %s moved the pass index back from %d to %d", s.Name(), pass, next))
		}
		pass = next
	}
	return pass
}
