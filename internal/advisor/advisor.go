// Package advisor implements a small rule-based chat agent with preference
// memory. It is a standalone demo agent, separate from the retrieval
// pipeline.
package advisor

import (
	"fmt"
	"math/rand"
	"regexp"
	"strings"
)

type intent string

const (
	intentGreeting intent = "greeting"
	intentFarewell intent = "farewell"
	intentJoke     intent = "joke"
	intentRemember intent = "remember"
	intentRecall   intent = "recall"
	intentAbout    intent = "about"
	intentHelp     intent = "help"
	intentGeneral  intent = "general"
)

var (
	nameRe = regexp.MustCompile(`(?i)my name is (\w+)`)
	likeRe = regexp.MustCompile(`(?i)i (?:like|love|enjoy) ([\w\s]+)`)
)

// Advisor is a rule-based agent: it classifies the input into an intent and
// produces a canned or memory-aware response.
type Advisor struct {
	Name   string
	memory *Memory
	jokes  map[string][]string
	facts  map[string]string
	rng    *rand.Rand
}

func New(rng *rand.Rand) *Advisor {
	return &Advisor{
		Name:   "Hello Advisor",
		memory: NewMemory(50),
		rng:    rng,
		jokes: map[string][]string{
			"science": {
				"Why don't scientists trust atoms? Because they make up everything!",
				"Parallel lines have so much in common. It's a shame they'll never meet.",
			},
			"programming": {
				"Why do programmers prefer dark mode? Because light attracts bugs!",
				"There are 10 types of people: those who understand binary and those who don't.",
			},
			"general": {
				"Why don't eggs tell jokes? They'd crack each other up!",
				"Why did the scarecrow win an award? He was outstanding in his field!",
			},
		},
		facts: map[string]string{
			"about": "I'm Hello Advisor, a rule-based chat agent with a simple memory.",
			"help":  "I can greet you, tell jokes (try 'tell me a programming joke'), remember things about you ('my name is ...', 'I like ...') and recall them ('what do you remember?').",
		},
	}
}

func (a *Advisor) Memory() *Memory { return a.memory }

// ProcessInput classifies the input and generates a response, recording the
// turn in memory.
func (a *Advisor) ProcessInput(input string) string {
	response := a.respond(classify(strings.ToLower(strings.TrimSpace(input))), input)
	a.memory.AddInteraction(input, response)
	return response
}

func classify(lower string) intent {
	switch {
	case lower == "":
		return intentGeneral
	case containsAny(lower, "hello", "hi ", "hey", "good morning", "good evening"):
		return intentGreeting
	case containsAny(lower, "bye", "goodbye", "see you", "farewell"):
		return intentFarewell
	case strings.Contains(lower, "joke"):
		return intentJoke
	case nameRe.MatchString(lower) || likeRe.MatchString(lower):
		return intentRemember
	case containsAny(lower, "remember", "recall", "what do you know about me"):
		return intentRecall
	case containsAny(lower, "who are you", "what are you"):
		return intentAbout
	case strings.Contains(lower, "help"):
		return intentHelp
	default:
		return intentGeneral
	}
}

func (a *Advisor) respond(it intent, input string) string {
	switch it {
	case intentGreeting:
		if name, ok := a.memory.Preference("name"); ok {
			return fmt.Sprintf("Hello again, %s! How can I help you today?", name)
		}
		return "Hello! I'm " + a.Name + ". What's your name?"
	case intentFarewell:
		return "Goodbye! It was nice chatting with you."
	case intentJoke:
		return a.tellJoke(strings.ToLower(input))
	case intentRemember:
		return a.remember(input)
	case intentRecall:
		return a.recall()
	case intentAbout:
		return a.facts["about"]
	case intentHelp:
		return a.facts["help"]
	default:
		return "Interesting! Tell me more, or ask for 'help' to see what I can do."
	}
}

func (a *Advisor) tellJoke(lower string) string {
	category := "general"
	for c := range a.jokes {
		if strings.Contains(lower, c) {
			category = c
			break
		}
	}
	jokes := a.jokes[category]
	return jokes[a.rng.Intn(len(jokes))]
}

func (a *Advisor) remember(input string) string {
	if m := nameRe.FindStringSubmatch(input); m != nil {
		a.memory.SetPreference("name", m[1])
		return fmt.Sprintf("Nice to meet you, %s! I'll remember that.", m[1])
	}
	if m := likeRe.FindStringSubmatch(input); m != nil {
		liked := strings.TrimSpace(m[1])
		a.memory.SetPreference("likes:"+liked, liked)
		return fmt.Sprintf("Got it, you like %s!", liked)
	}
	return "I'll keep that in mind."
}

func (a *Advisor) recall() string {
	prefs := a.memory.Preferences()
	if len(prefs) == 0 {
		return "I don't know anything about you yet. Tell me your name or what you like!"
	}
	var sb strings.Builder
	sb.WriteString("Here's what I remember:")
	if name, ok := prefs["name"]; ok {
		sb.WriteString(" your name is " + name + ".")
	}
	for k, v := range prefs {
		if strings.HasPrefix(k, "likes:") {
			sb.WriteString(" You like " + v + ".")
		}
	}
	return sb.String()
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
