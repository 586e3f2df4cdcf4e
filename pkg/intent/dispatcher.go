package intent

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/teslashibe/go-nain/pkg/advisor"
	"github.com/teslashibe/go-nain/pkg/geo"
	"github.com/teslashibe/go-nain/pkg/places"
	"github.com/teslashibe/go-nain/pkg/route"
)

// Fixed responses used when the recognizer supplies none.
const (
	HelpFallback       = "You can say navigate to a place, find a nearby place like a pharmacy, or ask where you are. While navigating, say next, previous, or where am I."
	InfoFallback       = "I am a walking navigation assistant. I can give you directions and warn you about obstacles."
	EmergencyFallback  = "If this is an emergency, please call your local emergency number right away."
	AskDestination     = "Where would you like to go?"
	AskPlaceType       = "What kind of place are you looking for?"
	EnableLocation     = "I don't know where you are yet. Please enable location services and try again."
	SearchFailed       = "I couldn't search for nearby places right now."
	NotUnderstood      = "Sorry, I didn't understand that. Say help to hear what I can do."
	NoActiveNavigation = "You are not navigating right now."
)

// Position describes where the user is within an active route.
type Position struct {
	Destination string
	StepNumber  int
	TotalSteps  int
	Instruction string
}

// Navigator is the session coordinator as seen by the dispatcher.
type Navigator interface {
	Active() bool
	StartNavigation(ctx context.Context, destination, utterance string) error
	Advance(ctx context.Context, dir route.Direction) bool
	Position() (Position, bool)
}

// Speaker speaks one utterance, interrupting any other.
type Speaker interface {
	Say(text string)
}

// Locator reports the last known location.
type Locator interface {
	Current(ctx context.Context) (geo.Point, bool)
}

// Adviser answers general questions.
type Adviser interface {
	Advise(ctx context.Context, req advisor.AdviceRequest) (string, error)
}

// Effect is the single side effect a dispatch produced.
type Effect int

const (
	EffectNone Effect = iota
	EffectSessionStarted
	EffectStepAdvanced
	EffectSpoke
)

func (e Effect) String() string {
	switch e {
	case EffectSessionStarted:
		return "session_started"
	case EffectStepAdvanced:
		return "step_advanced"
	case EffectSpoke:
		return "spoke"
	default:
		return "none"
	}
}

// Outcome reports what Dispatch did. Err is set when a session start was
// attempted and failed; the navigator has already told the user.
type Outcome struct {
	Effect Effect `json:"effect"`
	Text   string `json:"text,omitempty"`
	Err    error  `json:"-"`
}

// Dispatcher routes intents. Each call produces at most one of: a session
// start, a step change, or one utterance.
type Dispatcher struct {
	nav     Navigator
	speaker Speaker
	loc     Locator
	places  places.Searcher
	adviser Adviser
	logger  *slog.Logger
}

// DispatcherConfig wires a Dispatcher. Places and Adviser are optional.
type DispatcherConfig struct {
	Navigator Navigator
	Speaker   Speaker
	Locator   Locator
	Places    places.Searcher
	Adviser   Adviser
	Logger    *slog.Logger
}

// NewDispatcher creates a dispatcher.
func NewDispatcher(cfg DispatcherConfig) *Dispatcher {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Dispatcher{
		nav:     cfg.Navigator,
		speaker: cfg.Speaker,
		loc:     cfg.Locator,
		places:  cfg.Places,
		adviser: cfg.Adviser,
		logger:  cfg.Logger.With("component", "intent.dispatcher"),
	}
}

// control phrase groups, checked in order
var (
	nextPhrases     = []string{"next", "continue"}
	previousPhrases = []string{"previous", "back", "repeat"}
	wherePhrases    = []string{"where am i", "current step"}
)

// Dispatch handles one recognized utterance.
func (d *Dispatcher) Dispatch(ctx context.Context, in Intent, utterance string) Outcome {
	if in == nil {
		in = Unknown{}
	}

	if d.nav.Active() {
		if out, ok := d.control(ctx, utterance); ok {
			return out
		}
	}

	d.logger.Debug("dispatching intent", "action", in.Action())

	switch v := in.(type) {
	case Navigate:
		if v.Destination == "" {
			return d.say(firstNonEmpty(v.Response, AskDestination))
		}
		err := d.nav.StartNavigation(ctx, v.Destination, utterance)
		if err != nil {
			d.logger.Info("navigation not started", "destination", v.Destination, "error", err)
		}
		return Outcome{Effect: EffectSessionStarted, Text: v.Destination, Err: err}
	case Help:
		return d.say(firstNonEmpty(v.Response, HelpFallback))
	case Locate:
		if v.Place == "" {
			return d.say(firstNonEmpty(v.Response, AskPlaceType))
		}
		return d.locate(ctx, v.Place)
	case Info:
		return d.say(firstNonEmpty(v.Response, InfoFallback))
	case Emergency:
		return d.say(firstNonEmpty(v.Response, EmergencyFallback))
	default:
		if r := in.Reply(); r != "" {
			return d.say(r)
		}
		return d.advise(ctx, utterance)
	}
}

// Handle recognizes utterance with rec and dispatches the result. While a
// session is active, control phrases are acted on without calling rec.
func (d *Dispatcher) Handle(ctx context.Context, rec Recognizer, utterance string) Outcome {
	if d.nav.Active() {
		if out, ok := d.control(ctx, utterance); ok {
			return out
		}
	}

	var in Intent = Unknown{}
	if rec != nil {
		in = rec.Recognize(ctx, utterance)
	}
	return d.Dispatch(ctx, in, utterance)
}

func (d *Dispatcher) control(ctx context.Context, utterance string) (Outcome, bool) {
	u := strings.ToLower(utterance)

	switch {
	case containsAny(u, nextPhrases):
		if d.nav.Advance(ctx, route.Next) {
			return Outcome{Effect: EffectStepAdvanced, Text: route.Next.String()}, true
		}
		return Outcome{}, true
	case containsAny(u, previousPhrases):
		if d.nav.Advance(ctx, route.Previous) {
			return Outcome{Effect: EffectStepAdvanced, Text: route.Previous.String()}, true
		}
		return Outcome{}, true
	case containsAny(u, wherePhrases):
		pos, ok := d.nav.Position()
		if !ok {
			return d.say(NoActiveNavigation), true
		}
		return d.say(fmt.Sprintf("You are on step %d of %d. %s", pos.StepNumber, pos.TotalSteps, pos.Instruction)), true
	}
	return Outcome{}, false
}

func (d *Dispatcher) locate(ctx context.Context, placeType string) Outcome {
	var (
		at geo.Point
		ok bool
	)
	if d.loc != nil {
		at, ok = d.loc.Current(ctx)
	}
	if !ok {
		return d.say(EnableLocation)
	}
	if d.places == nil {
		return d.say(SearchFailed)
	}

	found, err := d.places.Nearby(ctx, at, placeType)
	if err != nil {
		d.logger.Warn("nearby search failed", "type", placeType, "error", err)
		return d.say(SearchFailed)
	}
	if len(found) == 0 {
		return d.say(fmt.Sprintf("I couldn't find a %s nearby.", placeType))
	}

	p := found[0]
	return d.say(fmt.Sprintf("The nearest %s is %s, about %s away.", placeType, p.Name, geo.FormatDistance(p.Distance)))
}

func (d *Dispatcher) advise(ctx context.Context, utterance string) Outcome {
	if d.adviser == nil || strings.TrimSpace(utterance) == "" {
		return d.say(NotUnderstood)
	}

	req := advisor.AdviceRequest{Question: utterance}
	if pos, ok := d.nav.Position(); ok {
		req.Destination = pos.Destination
		req.Instruction = pos.Instruction
	}
	if d.loc != nil {
		if at, ok := d.loc.Current(ctx); ok {
			req.Location = &at
		}
	}

	answer, err := d.adviser.Advise(ctx, req)
	if err != nil || answer == "" {
		if err != nil {
			d.logger.Warn("general advice failed", "error", err)
		}
		return d.say(NotUnderstood)
	}
	return d.say(answer)
}

func (d *Dispatcher) say(text string) Outcome {
	d.speaker.Say(text)
	return Outcome{Effect: EffectSpoke, Text: text}
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
