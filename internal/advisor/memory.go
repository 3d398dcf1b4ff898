package advisor

import "time"

// Interaction is one remembered conversation turn.
type Interaction struct {
	Timestamp time.Time
	Input     string
	Response  string
}

// Memory keeps bounded conversation history and user preferences for the
// advisor agent.
type Memory struct {
	maxHistory  int
	history     []Interaction
	preferences map[string]string
	started     time.Time
}

func NewMemory(maxHistory int) *Memory {
	if maxHistory <= 0 {
		maxHistory = 50
	}
	return &Memory{
		maxHistory:  maxHistory,
		preferences: make(map[string]string),
		started:     time.Now(),
	}
}

// AddInteraction records a turn, pruning the oldest when over capacity.
func (m *Memory) AddInteraction(input, response string) {
	m.history = append(m.history, Interaction{
		Timestamp: time.Now(),
		Input:     input,
		Response:  response,
	})
	if len(m.history) > m.maxHistory {
		m.history = m.history[1:]
	}
}

func (m *Memory) SetPreference(key, value string) {
	m.preferences[key] = value
}

func (m *Memory) Preference(key string) (string, bool) {
	v, ok := m.preferences[key]
	return v, ok
}

// Preferences returns a copy of all remembered preferences.
func (m *Memory) Preferences() map[string]string {
	out := make(map[string]string, len(m.preferences))
	for k, v := range m.preferences {
		out[k] = v
	}
	return out
}

func (m *Memory) InteractionCount() int { return len(m.history) }

// Clear forgets history and preferences; the session start is kept.
func (m *Memory) Clear() {
	m.history = nil
	m.preferences = make(map[string]string)
}
