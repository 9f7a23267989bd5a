package telephony

import (
	"bytes"
	"encoding/xml"
)

// Minimal TwiML markup for the voice webhook responses, built on
// encoding/xml. Only the verbs the call flow actually emits are
// modeled.

type twimlResponse struct {
	XMLName xml.Name `xml:"Response"`
	Verbs   []any    `xml:",any"`
}

type twimlSay struct {
	XMLName  xml.Name `xml:"Say"`
	Voice    string   `xml:"voice,attr,omitempty"`
	Language string   `xml:"language,attr,omitempty"`
	Text     string   `xml:",chardata"`
}

type twimlGather struct {
	XMLName       xml.Name `xml:"Gather"`
	Input         string   `xml:"input,attr,omitempty"`
	Action        string   `xml:"action,attr,omitempty"`
	Method        string   `xml:"method,attr,omitempty"`
	Timeout       int      `xml:"timeout,attr,omitempty"`
	NumDigits     int      `xml:"numDigits,attr,omitempty"`
	SpeechTimeout string   `xml:"speechTimeout,attr,omitempty"`
	Hints         string   `xml:"hints,attr,omitempty"`
	Verbs         []any    `xml:",any"`
}

type twimlPause struct {
	XMLName xml.Name `xml:"Pause"`
	Length  int      `xml:"length,attr,omitempty"`
}

type twimlPlay struct {
	XMLName xml.Name `xml:"Play"`
	Loop    int      `xml:"loop,attr,omitempty"`
	URL     string   `xml:",chardata"`
}

type twimlRedirect struct {
	XMLName xml.Name `xml:"Redirect"`
	Method  string   `xml:"method,attr,omitempty"`
	URL     string   `xml:",chardata"`
}

type twimlDial struct {
	XMLName xml.Name `xml:"Dial"`
	Action  string   `xml:"action,attr,omitempty"`
	Method  string   `xml:"method,attr,omitempty"`
	Timeout int      `xml:"timeout,attr,omitempty"`
	Number  string   `xml:"Number,omitempty"`
}

type twimlEnqueue struct {
	XMLName xml.Name `xml:"Enqueue"`
	WaitURL string   `xml:"waitUrl,attr,omitempty"`
	Name    string   `xml:",chardata"`
}

type twimlConnect struct {
	XMLName xml.Name     `xml:"Connect"`
	Stream  *twimlStream `xml:"Stream,omitempty"`
}

type twimlStream struct {
	URL string `xml:"url,attr"`
}

type twimlHangup struct {
	XMLName xml.Name `xml:"Hangup"`
}

func encodeTwiML(r twimlResponse) (string, error) {
	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(r); err != nil {
		return "", err
	}
	if err := enc.Flush(); err != nil {
		return "", err
	}
	return buf.String(), nil
}
