// Package intent models what the user asked for and routes it to the right
// navigation, search or speech effect.
package intent

import (
	"strings"

	"github.com/teslashibe/go-nain/internal/jsonx"
)

// Action names as produced by the recognizer.
const (
	ActionNavigate  = "navigate"
	ActionHelp      = "help"
	ActionLocate    = "locate"
	ActionInfo      = "info"
	ActionEmergency = "emergency"
	ActionUnknown   = "unknown"
)

// Intent is one of Navigate, Help, Locate, Info, Emergency or Unknown.
type Intent interface {
	// Action returns the action name.
	Action() string

	// Reply returns the recognizer's suggested spoken response, if any.
	Reply() string

	isIntent()
}

// Navigate asks for walking directions. Destination may be empty.
type Navigate struct {
	Destination string
	Response    string
}

// Help asks what the assistant can do.
type Help struct{ Response string }

// Locate asks for the nearest place of a type. Place may be empty.
type Locate struct {
	Place    string
	Response string
}

// Info asks about the assistant.
type Info struct{ Response string }

// Emergency signals the user may be in danger.
type Emergency struct{ Response string }

// Unknown is anything else, including unparsable recognizer output.
type Unknown struct{ Response string }

func (Navigate) Action() string  { return ActionNavigate }
func (Help) Action() string      { return ActionHelp }
func (Locate) Action() string    { return ActionLocate }
func (Info) Action() string      { return ActionInfo }
func (Emergency) Action() string { return ActionEmergency }
func (Unknown) Action() string   { return ActionUnknown }

func (i Navigate) Reply() string  { return i.Response }
func (i Help) Reply() string      { return i.Response }
func (i Locate) Reply() string    { return i.Response }
func (i Info) Reply() string      { return i.Response }
func (i Emergency) Reply() string { return i.Response }
func (i Unknown) Reply() string   { return i.Response }

func (Navigate) isIntent()  {}
func (Help) isIntent()      {}
func (Locate) isIntent()    {}
func (Info) isIntent()      {}
func (Emergency) isIntent() {}
func (Unknown) isIntent()   {}

// wire is the recognizer's JSON shape.
type wire struct {
	Action      string  `json:"action"`
	Destination *string `json:"destination"`
	Place       *string `json:"place"`
	Response    *string `json:"response"`
}

// Parse validates recognizer output. It never fails: malformed input
// becomes Unknown with no response.
func Parse(raw []byte) Intent {
	var w wire
	if err := jsonx.Unmarshal(raw, &w); err != nil {
		return Unknown{}
	}
	return w.intent()
}

func (w wire) intent() Intent {
	resp := clean(w.Response)
	switch strings.ToLower(strings.TrimSpace(w.Action)) {
	case ActionNavigate:
		return Navigate{Destination: clean(w.Destination), Response: resp}
	case ActionHelp:
		return Help{Response: resp}
	case ActionLocate:
		return Locate{Place: clean(w.Place), Response: resp}
	case ActionInfo:
		return Info{Response: resp}
	case ActionEmergency:
		return Emergency{Response: resp}
	default:
		return Unknown{Response: resp}
	}
}

func clean(s *string) string {
	if s == nil {
		return ""
	}
	v := strings.TrimSpace(*s)
	if strings.EqualFold(v, "null") || strings.EqualFold(v, "none") {
		return ""
	}
	return v
}
