package server

import (
	"github.com/lox/holdemgym/internal/game"
)

// MessageType identifies a message on the wire.
type MessageType string

const (
	MessageTypeReset       MessageType = "reset"
	MessageTypeStep        MessageType = "step"
	MessageTypeObservation MessageType = "observation"
	MessageTypeError       MessageType = "error"
)

// Error codes sent in ErrorMessage.Code.
const (
	CodeInvalidMessage = "invalid_message"
	CodeInvalidAction  = "invalid_action"
	CodeNoHand         = "no_hand"
	CodeHandComplete   = "hand_complete"
	CodeInternal       = "internal"
)

// Request is a client → server message.
//
//	{"type": "reset"}
//	{"type": "step", "action": 12.5}
type Request struct {
	Type   MessageType `json:"type"`
	Action *float64    `json:"action,omitempty"`
}

// ObservationMessage answers reset and step.
type ObservationMessage struct {
	Type        MessageType  `json:"type"`
	Observation []float64    `json:"observation"`
	Reward      float64      `json:"reward"`
	Done        bool         `json:"done"`
	HandID      string       `json:"hand_id"`
	Outcome     *OutcomeData `json:"outcome,omitempty"`
}

// OutcomeData summarises a finished hand.
type OutcomeData struct {
	Winner     string `json:"winner"`
	Pot        int    `json:"pot"`
	Showdown   bool   `json:"showdown"`
	Round      string `json:"round"`
	AgentRank  string `json:"agent_rank,omitempty"`
	BotRank    string `json:"bot_rank,omitempty"`
	AgentDelta int    `json:"agent_delta"`
	BotDelta   int    `json:"bot_delta"`
}

// ErrorMessage reports a rejected request. The connection stays open.
type ErrorMessage struct {
	Type  MessageType `json:"type"`
	Code  string      `json:"code"`
	Error string      `json:"error"`
}

func newObservationMessage(obs game.Observation, reward float64, done bool, handID string, out *game.Outcome) *ObservationMessage {
	msg := &ObservationMessage{
		Type:        MessageTypeObservation,
		Observation: obs.Slice(),
		Reward:      reward,
		Done:        done,
		HandID:      handID,
	}
	if out != nil {
		msg.Outcome = &OutcomeData{
			Winner:     out.Winner.String(),
			Pot:        out.Pot,
			Showdown:   out.Showdown,
			Round:      out.Round.String(),
			AgentDelta: out.AgentDelta,
			BotDelta:   out.BotDelta,
		}
		if out.Showdown {
			msg.Outcome.AgentRank = out.AgentRank.String()
			msg.Outcome.BotRank = out.BotRank.String()
		}
	}
	return msg
}

func newErrorMessage(code string, err error) *ErrorMessage {
	return &ErrorMessage{Type: MessageTypeError, Code: code, Error: err.Error()}
}
