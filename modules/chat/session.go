package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	domain "github.com/example/nextalk-server/domain/chat"
)

// State is where a session is in its lifecycle.
type State int

const (
	// StateConnected is a live socket that has not registered a username.
	StateConnected State = iota
	// StateRegistered is a socket with a username; register may repeat.
	StateRegistered
	// StateTerminated is a closed socket. It is final.
	StateTerminated
)

func (s State) String() string {
	switch s {
	case StateConnected:
		return "connected"
	case StateRegistered:
		return "registered"
	case StateTerminated:
		return "terminated"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

var (
	// ErrSessionTerminated is returned for events arriving after Close.
	ErrSessionTerminated = errors.New("session terminated")
	// ErrUnknownEvent is returned by Handle for unrecognised event names.
	ErrUnknownEvent = errors.New("unknown event")
)

// Session drives one connection through the chat protocol.
// Errors it returns are for logging only; nothing is sent back to the client.
type Session struct {
	id    string
	relay *Relay

	mu    sync.Mutex
	state State
}

// ID returns the connection id.
func (s *Session) ID() string {
	return s.id
}

// Info reports the session's username and rooms.
func (s *Session) Info() ConnInfo {
	return s.relay.Connection(s.id)
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Handle dispatches an inbound event by name.
func (s *Session) Handle(ctx context.Context, event string, data json.RawMessage) error {
	switch event {
	case domain.EventRegister:
		name, _ := scalarString(data)
		return s.Register(name)
	case domain.EventJoinRoom:
		room, _ := scalarString(data)
		return s.JoinRoom(ctx, room)
	case domain.EventSendMessage:
		return s.SendMessage(data)
	case domain.EventTyping:
		return s.Typing(data)
	case domain.EventStopTyping:
		return s.StopTyping()
	default:
		return fmt.Errorf("%w: %q", ErrUnknownEvent, event)
	}
}

// Register sets the username for this connection and broadcasts the new
// online set to every connection.
func (s *Session) Register(username string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateTerminated {
		return ErrSessionTerminated
	}
	s.relay.register(s.id, username)
	s.state = StateRegistered
	return nil
}

// JoinRoom subscribes the connection to room and sends it the room's recent
// history. A failed history load leaves the membership in place.
func (s *Session) JoinRoom(ctx context.Context, room string) error {
	s.mu.Lock()
	if s.state == StateTerminated {
		s.mu.Unlock()
		return ErrSessionTerminated
	}
	room = s.relay.rooms.Join(s.id, room)
	s.mu.Unlock()

	msgs, err := s.relay.Recent(ctx, room, 0)
	if err != nil {
		s.relay.logger.Warn("Failed to load history", "connID", s.id, "room", room, "error", err)
		return nil
	}
	if msgs == nil {
		msgs = []domain.Message{}
	}
	s.relay.out.ToConn(s.id, domain.EventChatHistory, msgs)
	return nil
}

// SendMessage persists the normalized message in the background and relays
// the payload exactly as received: to the addressed room, or to everyone.
func (s *Session) SendMessage(raw json.RawMessage) error {
	if s.State() == StateTerminated {
		return ErrSessionTerminated
	}

	msg, target := NormalizeMessage(raw, s.relay.now().UTC())
	s.relay.persist(s.id, msg)

	payload := payloadOrNil(raw)
	if target != "" {
		s.relay.out.ToRoom(target, domain.EventReceiveMessage, payload)
	} else {
		s.relay.out.ToAll(domain.EventReceiveMessage, payload)
	}
	return nil
}

// Typing relays data to everyone except this connection.
func (s *Session) Typing(data json.RawMessage) error {
	if s.State() == StateTerminated {
		return ErrSessionTerminated
	}
	s.relay.out.ToAllExcept(s.id, domain.EventDisplayTyping, payloadOrNil(data))
	return nil
}

// StopTyping tells everyone except this connection to hide its indicator.
func (s *Session) StopTyping() error {
	if s.State() == StateTerminated {
		return ErrSessionTerminated
	}
	s.relay.out.ToAllExcept(s.id, domain.EventHideTyping, nil)
	return nil
}

// Close ends the session. Only the first call has any effect.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateTerminated {
		return
	}
	s.state = StateTerminated
	s.relay.disconnect(s.id)
}
