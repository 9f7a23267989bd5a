// Package prompts holds every sentence the voice agent can speak.
//
// A built-in catalog covers all keys; an optional YAML file overrides
// individual entries so agencies can adjust wording without a rebuild.
package prompts

import (
	"fmt"
	"sort"
)

// fallback is spoken when a handler asks for a key that does not exist.
// The caller still gets a complete sentence rather than silence.
const fallback = "I'm sorry, something went wrong. We will connect you with a representative later."

// Catalog resolves prompt keys to speakable text. Values may contain
// fmt verbs filled by Text.
type Catalog struct {
	texts map[string]string
}

// Defaults returns the built-in catalog.
func Defaults() *Catalog {
	texts := make(map[string]string, len(defaultTexts))
	for k, v := range defaultTexts {
		texts[k] = v
	}
	return &Catalog{texts: texts}
}

// Text formats the prompt registered under key. Unknown keys resolve to a
// safe generic sentence so a bad key can never leave the caller in silence.
func (c *Catalog) Text(key string, args ...any) string {
	t, ok := c.texts[key]
	if !ok {
		return fallback
	}
	if len(args) == 0 {
		return t
	}
	return fmt.Sprintf(t, args...)
}

// Has reports whether key exists in the catalog.
func (c *Catalog) Has(key string) bool {
	_, ok := c.texts[key]
	return ok
}

// Keys returns every registered key in sorted order.
func (c *Catalog) Keys() []string {
	keys := make([]string, 0, len(c.texts))
	for k := range c.texts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

var defaultTexts = map[string]string{
	"greeting": "Thank you for calling the CareLine scheduling line.",

	"auth.recognized":   "Welcome back, %s.",
	"auth.pin_prompt":   "Please enter your four digit employee PIN, followed by the pound key.",
	"auth.pin_say":      "Please say or enter your four digit employee PIN.",
	"auth.pin_invalid":  "That PIN was not recognized.",
	"auth.pin_bad_form": "A PIN is exactly four digits.",

	"provider.intro":  "You work with more than one agency.",
	"provider.option": "For %s, press %d.",
	"provider.prompt": "Please choose an agency.",

	"menu.main": "Main menu. To reschedule an upcoming visit, press 1. To release a visit back to your agency, press 2. To speak with a representative, press 3.",

	"job.list_intro":     "Here are your assigned jobs.",
	"job.option":         "For job %s, press %d.",
	"job.manual_option":  "To enter a different job number, press 9.",
	"job.none":           "I could not find any jobs assigned to you.",
	"job.number_prompt":  "Please enter the job number, followed by the pound key.",
	"job.number_say":     "Please say or enter the job number.",
	"job.number_confirm": "I heard job number %s. Press 1 to confirm, or 2 to re-enter.",
	"job.not_found":      "I could not find a job with that number.",
	"job.denied":         "You are not authorized for that job.",

	"client.id_prompt":    "Please enter the client I D, followed by the pound key.",
	"client.id_confirm":   "I heard client I D %s. Press 1 to confirm, or 2 to re-enter.",
	"client.job_mismatch": "That job number does not match the client I D you entered.",

	"occurrence.intro":  "Here are the upcoming visits for this job.",
	"occurrence.option": "For the visit on %s, press %d.",
	"occurrence.none":   "There are no upcoming visits for that job.",

	"sched.day_prompt":    "Please enter the new day of the month, followed by the pound key.",
	"sched.month_prompt":  "Please enter the new month as a number, followed by the pound key.",
	"sched.time_prompt":   "Please enter the new time in twenty four hour format, for example 1 4 3 0 for two thirty in the afternoon, followed by the pound key.",
	"sched.invalid_date":  "That day and month do not form a valid date.",
	"sched.past_time":     "That time has already passed today.",
	"sched.confirm":       "You asked to move the visit to %s. Press 1 to confirm, or 2 to start over.",
	"sched.speak_prompt":  "Please say the new date and time for the visit.",
	"sched.need_date":     "I have the time. Please say the new date for the visit.",
	"sched.need_time":     "I have the date. Please say the new time for the visit.",
	"sched.committed":     "Your visit has been moved to %s.",
	"sched.restart":       "Okay, let's start over.",

	"release.reason_prompt": "After the tone, briefly say why you are releasing this visit.",
	"release.confirm":       "You are about to release the visit on %s. Press 1 to confirm, or 2 to keep it.",
	"release.committed":     "The visit has been released and your agency has been notified.",
	"release.kept":          "Okay, the visit is unchanged.",

	"transfer.announce":   "Please hold while I connect you with a representative.",
	"transfer.position":   "You are caller number %d in line.",
	"transfer.wait":       "The estimated wait is about %d minutes.",
	"transfer.first":      "A representative will be with you shortly.",
	"transfer.hold_music": "Please stay on the line.",

	"input.none":    "I didn't hear anything.",
	"input.invalid": "I didn't understand that.",
	"input.clarify": "I'm sorry, I didn't quite catch that. Could you say it again?",

	"escalate.limit": "I'm having trouble understanding. Let me connect you with a representative.",

	"busy.lines": "We are sorry, all of our lines are busy right now. Please call back in a few minutes.",

	"error.generic":  "I'm sorry, something went wrong. We will connect you with a representative later.",
	"error.transfer": "I'm sorry, something went wrong.",

	"goodbye": "Thank you for calling. Goodbye.",
}
