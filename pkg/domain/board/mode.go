package board

import (
	"fmt"

	"github.com/felixgeelhaar/statekit"
)

// Interaction modes of the board. These stay untyped so they convert to
// statekit.StateID.
const (
	ModeBrowsing  = "browsing"
	ModeCarrying  = "carrying"
	ModeComposing = "composing"
	ModeDetail    = "detail"
	ModeLogin     = "login"
)

// Mode events.
const (
	EventPick         = "pick"
	EventDrop         = "drop"
	EventCancel       = "cancel"
	EventCompose      = "compose"
	EventSubmit       = "submit"
	EventOpen         = "open"
	EventClose        = "close"
	EventExpire       = "expire"
	EventAuthenticate = "authenticate"
)

// ModeContext lets guards look at the session.
type ModeContext struct {
	Authenticated func() bool
}

// ModeMachine tracks which interaction mode the board is in.
type ModeMachine struct {
	interpreter *statekit.Interpreter[ModeContext]
}

// NewModeMachine starts in browsing when authenticated reports true,
// otherwise in login.
func NewModeMachine(authenticated func() bool) (*ModeMachine, error) {
	if authenticated == nil {
		authenticated = func() bool { return false }
	}
	initial := ModeLogin
	if authenticated() {
		initial = ModeBrowsing
	}

	builder := statekit.NewMachine[ModeContext]("board-modes").
		WithInitial(statekit.StateID(initial)).
		WithContext(ModeContext{Authenticated: authenticated}).
		WithGuard("authenticated", func(ctx ModeContext, e statekit.Event) bool {
			return ctx.Authenticated()
		})

	builder.State(ModeBrowsing).
		On(EventPick).Target(ModeCarrying).
		On(EventCompose).Target(ModeComposing).
		On(EventOpen).Target(ModeDetail).
		On(EventExpire).Target(ModeLogin).
		Done()

	builder.State(ModeCarrying).
		On(EventDrop).Target(ModeBrowsing).
		On(EventCancel).Target(ModeBrowsing).
		On(EventExpire).Target(ModeLogin).
		Done()

	builder.State(ModeComposing).
		On(EventSubmit).Target(ModeBrowsing).
		On(EventCancel).Target(ModeBrowsing).
		On(EventExpire).Target(ModeLogin).
		Done()

	builder.State(ModeDetail).
		On(EventClose).Target(ModeBrowsing).
		On(EventExpire).Target(ModeLogin).
		Done()

	builder.State(ModeLogin).
		On(EventAuthenticate).Target(ModeBrowsing).Guard("authenticated").
		Done()

	machine, err := builder.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build mode machine: %w", err)
	}

	interpreter := statekit.NewInterpreter(machine)
	interpreter.Start()
	return &ModeMachine{interpreter: interpreter}, nil
}

// Send fires event and reports whether the mode changed.
func (m *ModeMachine) Send(event string) bool {
	before := m.Current()
	m.interpreter.Send(statekit.Event{Type: statekit.EventType(event)})
	return m.Current() != before
}

func (m *ModeMachine) Current() string {
	return string(m.interpreter.State().Value)
}

// Is reports whether the machine is in mode.
func (m *ModeMachine) Is(mode string) bool {
	return m.Current() == mode
}
