package graph

// END is the virtual terminal target a conditional branch map may point
// to, ending the workflow successfully without a further node activation.
const END = "__end__"

// EdgeKind discriminates how a node's outgoing edge is followed.
type EdgeKind string

const (
	EdgeFixed       EdgeKind = "fixed"
	EdgeConditional EdgeKind = "conditional"
	EdgeParallel    EdgeKind = "parallel"
)

// RouterFunc inspects the current state and returns a branch key that
// indexes into the owning edge's BranchMap.
type RouterFunc func(state map[string]any) (string, error)

// Edge connects a source node to one or more targets.
type Edge struct {
	Kind   EdgeKind
	Src    string
	Dst    string            // FIXED
	Router RouterFunc        // CONDITIONAL
	Branch map[string]string // CONDITIONAL: key -> target (possibly END)
	Fanout []string          // PARALLEL
}
