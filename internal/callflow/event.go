package callflow

// Source tells a handler which channel produced the caller's input.
type Source string

const (
	SourceDTMF   Source = "dtmf"
	SourceSpeech Source = "speech"
	SourceNone   Source = "none"
)

// Event is one inbound webhook turn, normalized by the transport layer.
type Event struct {
	CallID       string
	CallerNumber string

	// Raw is the DTMF digit buffer or the speech transcript, depending
	// on Source. Empty with SourceNone when the gather timed out.
	Raw        string
	Source     Source
	Confidence float64

	// DialStatus carries the transport's result for a finished transfer
	// dial leg ("completed", "busy", "no-answer", "failed").
	DialStatus string

	// Initial marks the first contact for a call id; the engine sets it
	// when no stored state exists yet.
	Initial bool
}

// HasInput reports whether the caller provided anything this turn.
func (e Event) HasInput() bool {
	return e.Source != SourceNone && e.Raw != ""
}
