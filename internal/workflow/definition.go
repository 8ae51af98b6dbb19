package workflow

/*
BindingKind selects how a step's declared output key is bound from the
agent's result map.

BindAuto reproduces the historical loose matching: exact key, then a
suffix match against the result's keys, and last, when the step declares
exactly one output and the result is non-empty, the whole result object.
The suffix fallback can bind the wrong field when several result keys share
a suffix; steps that care declare an explicit BindWhole or BindFrom instead.
*/
type BindingKind int

const (
	BindAuto BindingKind = iota
	// BindWhole binds the entire result object to the output key.
	BindWhole
	// BindFrom binds the value of a named result key to the output key.
	BindFrom
)

type Binding struct {
	Kind BindingKind
	// From is the source result key; only meaningful for BindFrom.
	From string
}

/*
Step names an agent, the context keys it reads, and the context keys it
writes. Bindings optionally override BindAuto per output key; it is
configured at definition time, never inferred per execution.
*/
type Step struct {
	StepID      string
	AgentID     string
	Description string
	Inputs      []string
	Outputs     []string
	Bindings    map[string]Binding
}

// Definition is a static, ordered list of steps, defined once per workflow
// type, never per execution.
type Definition struct {
	ID    string
	Name  string
	Steps []Step
}
