package telephony

import (
	"errors"
	"fmt"
	"strings"

	"careline/internal/callflow"
)

// Variant selects how engine outcomes are rendered for the provider.
type Variant string

const (
	// VariantSimple speaks prompts and collects keypad digits.
	VariantSimple Variant = "simple"
	// VariantGatherConfirm is VariantSimple with tuned confirmation
	// gathers: yes/no steps also accept a spoken answer.
	VariantGatherConfirm Variant = "gather-confirm"
	// VariantAdaptiveStream hands speech turns to a streaming
	// recognizer over a websocket instead of provider transcription.
	VariantAdaptiveStream Variant = "adaptive-stream"
)

// ParseVariant validates a configured variant name. Empty selects
// VariantSimple.
func ParseVariant(s string) (Variant, error) {
	switch v := Variant(s); v {
	case VariantSimple, VariantGatherConfirm, VariantAdaptiveStream:
		return v, nil
	case "":
		return VariantSimple, nil
	default:
		return "", fmt.Errorf("telephony: unknown response variant %q", s)
	}
}

type BuilderConfig struct {
	Variant Variant

	// Voice and Language are passed through on every spoken sentence.
	Voice    string
	Language string

	// CollectURL receives gather input and gather-timeout redirects.
	CollectURL string
	// DialResultURL receives the outcome of transfer dial legs.
	DialResultURL string
	// WaitURL serves hold audio to enqueued callers; empty keeps the
	// provider default.
	WaitURL string
	// StreamURL is the websocket endpoint for VariantAdaptiveStream.
	StreamURL string
}

func (c BuilderConfig) withDefaults() BuilderConfig {
	if c.Variant == "" {
		c.Variant = VariantSimple
	}
	if c.CollectURL == "" {
		c.CollectURL = "/voice/collect"
	}
	if c.DialResultURL == "" {
		c.DialResultURL = "/voice/dial-result"
	}
	return c
}

// Builder turns engine outcomes into TwiML documents.
type Builder struct {
	cfg BuilderConfig
}

func NewBuilder(cfg BuilderConfig) *Builder {
	return &Builder{cfg: cfg.withDefaults()}
}

// Render produces the TwiML for one outcome. A gather nests the last
// spoken sentence so callers can answer over it, and is followed by a
// redirect that re-enters the flow when the gather times out.
func (b *Builder) Render(o callflow.Outcome) (string, error) {
	var r twimlResponse

	switch {
	case o.Gather != nil:
		say := o.Say
		prompt := ""
		if len(say) > 0 {
			prompt = say[len(say)-1]
			say = say[:len(say)-1]
		}
		r.Verbs = b.sayVerbs(say)

		if b.streams(*o.Gather) {
			if b.cfg.StreamURL == "" {
				return "", errors.New("telephony: stream url required for adaptive variant")
			}
			if prompt != "" {
				r.Verbs = append(r.Verbs, b.say(prompt))
			}
			r.Verbs = append(r.Verbs, twimlConnect{Stream: &twimlStream{URL: b.cfg.StreamURL}})
			break
		}

		g := b.gatherVerb(*o.Gather)
		if prompt != "" {
			g.Verbs = append(g.Verbs, b.say(prompt))
		}
		r.Verbs = append(r.Verbs, g)
		r.Verbs = append(r.Verbs, twimlRedirect{Method: "POST", URL: b.cfg.CollectURL})
	case o.Dial != nil:
		r.Verbs = b.sayVerbs(o.Say)
		r.Verbs = append(r.Verbs, twimlDial{
			Action:  b.cfg.DialResultURL,
			Method:  "POST",
			Timeout: o.Dial.Timeout,
			Number:  o.Dial.Number,
		})
	case o.Enqueue != nil:
		r.Verbs = b.sayVerbs(o.Say)
		r.Verbs = append(r.Verbs, twimlEnqueue{WaitURL: b.cfg.WaitURL, Name: o.Enqueue.Queue})
	default:
		r.Verbs = b.sayVerbs(o.Say)
		if o.Hangup {
			r.Verbs = append(r.Verbs, twimlHangup{})
		}
	}

	return encodeTwiML(r)
}

// streams reports whether the gather should be replaced by a media
// stream session. Digit-only gathers (PIN entry) stay on the keypad
// even under the adaptive variant.
func (b *Builder) streams(spec callflow.GatherSpec) bool {
	return b.cfg.Variant == VariantAdaptiveStream && spec.Mode != callflow.GatherDigits
}

func (b *Builder) gatherVerb(spec callflow.GatherSpec) twimlGather {
	mode := spec.Mode
	hints := spec.Hints
	if b.cfg.Variant == VariantGatherConfirm && spec.Confirm && mode == callflow.GatherDigits {
		// Tuned confirmation: accept a spoken yes or no alongside the
		// keypad even in a digits-first deployment.
		mode = callflow.GatherBoth
		if len(hints) == 0 {
			hints = []string{"yes", "no"}
		}
	}

	g := twimlGather{
		Input:   gatherInput(mode),
		Action:  b.cfg.CollectURL,
		Method:  "POST",
		Timeout: spec.Timeout,
	}
	if mode != callflow.GatherSpeech {
		g.NumDigits = spec.MaxDigits
	}
	if mode != callflow.GatherDigits {
		g.Hints = strings.Join(hints, ", ")
		g.SpeechTimeout = "auto"
	}
	return g
}

func gatherInput(m callflow.GatherMode) string {
	switch m {
	case callflow.GatherSpeech:
		return "speech"
	case callflow.GatherBoth:
		return "dtmf speech"
	default:
		return "dtmf"
	}
}

func (b *Builder) say(text string) twimlSay {
	return twimlSay{Voice: b.cfg.Voice, Language: b.cfg.Language, Text: text}
}

func (b *Builder) sayVerbs(texts []string) []any {
	var verbs []any
	for _, t := range texts {
		verbs = append(verbs, b.say(t))
	}
	return verbs
}
