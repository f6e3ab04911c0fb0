package websocket

import "encoding/json"

// Message defines the structure for websocket messages.
type Message struct {
	Action  string      `json:"action"`
	Payload interface{} `json:"payload"`
}

// TaskRef identifies the task a notification is about.
type TaskRef struct {
	ID string `json:"id"`
}

// NewTaskMessage encodes a task change notification such as "task.updated".
func NewTaskMessage(action, taskID string) []byte {
	return encode(Message{Action: action, Payload: TaskRef{ID: taskID}})
}

// NewErrorMessage encodes an error reply to a client.
func NewErrorMessage(message string) []byte {
	return encode(Message{Action: "error", Payload: map[string]string{"message": message}})
}

// NewPongMessage encodes the reply to an application-level ping.
func NewPongMessage() []byte {
	return encode(Message{Action: "pong"})
}

func encode(msg Message) []byte {
	b, err := json.Marshal(msg)
	if err != nil {
		// Payloads are plain structs and maps of strings.
		return []byte(`{"action":"error","payload":{"message":"encoding failed"}}`)
	}
	return b
}
