package telephony

import (
	"net/http"
	"strconv"
	"strings"

	"careline/internal/callflow"
)

// VoiceForm captures the subset of voice webhook fields the call flow
// consumes. Twilio sends application/x-www-form-urlencoded by default.
// Ref: https://www.twilio.com/docs/voice/twiml
//
// Keep it minimal and provider-adapter-only. Flow decisions are not
// made here.

type VoiceForm struct {
	CallSid    string
	AccountSid string
	From       string
	To         string
	CallStatus string

	// Digits and SpeechResult carry gather input; Confidence only
	// accompanies SpeechResult.
	Digits       string
	SpeechResult string
	Confidence   float64

	// DialCallStatus arrives on the dial action callback.
	DialCallStatus string

	// CallDuration (seconds) arrives on the final status callback.
	CallDuration int

	// QueuePosition arrives on wait-URL requests for enqueued callers.
	QueuePosition int
}

func ParseVoiceWebhook(r *http.Request) (VoiceForm, error) {
	if err := r.ParseForm(); err != nil {
		return VoiceForm{}, err
	}
	f := VoiceForm{
		CallSid:        r.PostFormValue("CallSid"),
		AccountSid:     r.PostFormValue("AccountSid"),
		From:           normalizePhone(r.PostFormValue("From")),
		To:             normalizePhone(r.PostFormValue("To")),
		CallStatus:     r.PostFormValue("CallStatus"),
		Digits:         r.PostFormValue("Digits"),
		SpeechResult:   r.PostFormValue("SpeechResult"),
		DialCallStatus: r.PostFormValue("DialCallStatus"),
	}
	if v := r.PostFormValue("Confidence"); v != "" {
		if conf, err := strconv.ParseFloat(v, 64); err == nil {
			f.Confidence = conf
		}
	}
	if v := r.PostFormValue("CallDuration"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil {
			f.CallDuration = secs
		}
	}
	if v := r.PostFormValue("QueuePosition"); v != "" {
		if pos, err := strconv.Atoi(v); err == nil {
			f.QueuePosition = pos
		}
	}
	return f, nil
}

func normalizePhone(s string) string {
	s = strings.TrimSpace(s)
	// Twilio sometimes sends "anonymous" or empty; keep as-is.
	return s
}

// Event converts one webhook turn into the engine's input shape.
// Digits win when a turn somehow carries both digits and a transcript.
func (f VoiceForm) Event() callflow.Event {
	ev := callflow.Event{
		CallID:       f.CallSid,
		CallerNumber: f.From,
		Source:       callflow.SourceNone,
		DialStatus:   f.DialCallStatus,
	}
	switch {
	case f.Digits != "":
		ev.Source = callflow.SourceDTMF
		ev.Raw = f.Digits
	case strings.TrimSpace(f.SpeechResult) != "":
		ev.Source = callflow.SourceSpeech
		ev.Raw = f.SpeechResult
		ev.Confidence = f.Confidence
	}
	return ev
}
