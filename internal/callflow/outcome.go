package callflow

// GatherMode selects which input channels the next gather accepts.
type GatherMode string

const (
	GatherDigits GatherMode = "digits"
	GatherSpeech GatherMode = "speech"
	GatherBoth   GatherMode = "both"
)

// GatherSpec describes the input the conversation expects next.
type GatherSpec struct {
	Mode      GatherMode
	MaxDigits int
	// Timeout is the seconds of silence before the transport reports a
	// no-input turn.
	Timeout int
	// Confirm marks a one-digit yes/no style gather so the response
	// builder can use its confirmation variant.
	Confirm bool
	// Hints are phrases the speech recognizer should bias toward.
	Hints []string
}

// DialSpec asks the transport to bridge the caller to a number.
type DialSpec struct {
	Number  string
	Timeout int
}

// EnqueueSpec parks the caller in a named hold queue.
type EnqueueSpec struct {
	Queue string
}

// Outcome is a handler's instruction to the transport: sentences to
// speak, then at most one of gather, dial, enqueue, or hangup.
type Outcome struct {
	Say     []string
	Gather  *GatherSpec
	Dial    *DialSpec
	Enqueue *EnqueueSpec
	Hangup  bool
}

func say(texts ...string) Outcome {
	return Outcome{Say: texts}
}

func (o Outcome) withGather(g GatherSpec) Outcome {
	o.Gather = &g
	return o
}

func (o Outcome) prepend(texts ...string) Outcome {
	o.Say = append(append([]string{}, texts...), o.Say...)
	return o
}
