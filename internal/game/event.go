package game

type EventType string

const (
	EventStarted     EventType = "started"
	EventTick        EventType = "tick"
	EventHidden      EventType = "hidden"
	EventFlipped     EventType = "flipped"
	EventMatched     EventType = "matched"
	EventMismatched  EventType = "mismatched"
	EventFlippedBack EventType = "flipped_back"
	EventWon         EventType = "won"
	EventLost        EventType = "lost"
	EventReset       EventType = "reset"
	EventStopped     EventType = "stopped"
)

// Outcome is the result of the last finished round.
type Outcome string

const (
	OutcomeNone Outcome = ""
	OutcomeWon  Outcome = "won"
	OutcomeLost Outcome = "lost"
)

// Event is emitted after every state transition.
type Event struct {
	Type  EventType `json:"type"`
	State Snapshot  `json:"state"`
}

// CardView is a card as the rendering layer sees it.
type CardView struct {
	Index    int    `json:"index"`
	ID       string `json:"id"`
	ImageRef string `json:"imageRef"`
	FaceUp   bool   `json:"faceUp"`
	Matched  bool   `json:"matched"`
}

type Snapshot struct {
	Round            int        `json:"round"`
	Cards            []CardView `json:"cards"`
	Revealed         bool       `json:"revealed"`
	Flipped          []int      `json:"flipped"`
	Matched          []string   `json:"matched"`
	RemainingSeconds int        `json:"remainingSeconds"`
	Clock            string     `json:"clock"`
	Over             bool       `json:"over"`
	Running          bool       `json:"running"`
	LastOutcome      Outcome    `json:"lastOutcome,omitempty"`
	Wins             int        `json:"wins"`
	Losses           int        `json:"losses"`
}

// FaceDown counts cards currently shown face down.
func (s Snapshot) FaceDown() int {
	n := 0
	for _, c := range s.Cards {
		if !c.FaceUp {
			n++
		}
	}
	return n
}
