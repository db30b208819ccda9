package assistant

import "time"

// Sender identifies who authored a transcript entry
type Sender string

const (
	SenderUser Sender = "user"
	SenderBot  Sender = "bot"
)

const (
	// Greeting seeds every freshly opened panel
	Greeting = "Ciao! Sono l'assistente virtuale AI di SIGEP World. Chiedimi qualsiasi cosa su espositori ed eventi!"

	// Apology replaces the answer of every failed turn
	Apology = "Mi dispiace, ho avuto un problema nel processare la tua richiesta. Riprova più tardi."
)

// Message is one transcript entry. Seq orders entries within a session.
type Message struct {
	ID        string    `json:"id"`
	Seq       uint64    `json:"seq"`
	Text      string    `json:"text"`
	Sender    Sender    `json:"sender"`
	Timestamp time.Time `json:"timestamp"`
}

// Snapshot is an immutable copy of a session's state for rendering layers
type Snapshot struct {
	SessionID string    `json:"session_id"`
	Messages  []Message `json:"messages"`
	IsWaiting bool      `json:"is_waiting"`
}

// Last returns the newest transcript entry
func (s Snapshot) Last() (Message, bool) {
	if len(s.Messages) == 0 {
		return Message{}, false
	}
	return s.Messages[len(s.Messages)-1], true
}
