package events

import (
	"encoding/json"
	"errors"
	"time"
)

var ErrMalformedMessage = errors.New("malformed queue message")

// GameEventMessage es el sobre que viaja por la cola.
type GameEventMessage struct {
	EventType string                 `json:"eventType"`
	SubjectID string                 `json:"subjectId"`
	ActorID   string                 `json:"actorId"`
	Timestamp time.Time              `json:"timestamp"`
	Data      map[string]interface{} `json:"data"`
}

// NewGameEventMessage construye el sobre con timestamp UTC.
func NewGameEventMessage(eventType, subjectID, actorID string, data map[string]interface{}) GameEventMessage {
	return GameEventMessage{
		EventType: eventType,
		SubjectID: subjectID,
		ActorID:   actorID,
		Timestamp: time.Now().UTC(),
		Data:      data,
	}
}

// Encode serializa el sobre en su forma canónica (JSON, timestamp ISO-8601).
func (m GameEventMessage) Encode() ([]byte, error) {
	return json.Marshal(m)
}

// DecodeGameEventMessage decodifica y valida un cuerpo de mensaje.
// Acepta también los alias gameId/userId de productores antiguos.
func DecodeGameEventMessage(body []byte) (GameEventMessage, error) {
	var aux struct {
		GameEventMessage
		GameID string `json:"gameId"`
		UserID string `json:"userId"`
	}
	if err := json.Unmarshal(body, &aux); err != nil {
		return GameEventMessage{}, errors.Join(ErrMalformedMessage, err)
	}

	msg := aux.GameEventMessage
	if msg.SubjectID == "" {
		msg.SubjectID = aux.GameID
	}
	if msg.ActorID == "" {
		msg.ActorID = aux.UserID
	}
	if msg.EventType == "" {
		return GameEventMessage{}, errors.Join(ErrMalformedMessage, errors.New("missing eventType"))
	}
	return msg, nil
}
