package advisor

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

func newTestAdvisor() *Advisor {
	return New(rand.New(rand.NewSource(1)))
}

func TestProcessInput_Greeting(t *testing.T) {
	a := newTestAdvisor()
	resp := a.ProcessInput("Hello there!")
	assert.Contains(t, resp, "Hello")
}

func TestProcessInput_RemembersName(t *testing.T) {
	a := newTestAdvisor()

	resp := a.ProcessInput("My name is Ada")
	assert.Contains(t, resp, "Ada")

	name, ok := a.Memory().Preference("name")
	assert.True(t, ok)
	assert.Equal(t, "Ada", name)

	// a later greeting uses the remembered name
	resp = a.ProcessInput("hello again")
	assert.Contains(t, resp, "Ada")
}

func TestProcessInput_RecallWithNothingStored(t *testing.T) {
	a := newTestAdvisor()
	resp := a.ProcessInput("what do you remember?")
	assert.Contains(t, resp, "don't know anything")
}

func TestProcessInput_JokeByCategory(t *testing.T) {
	a := newTestAdvisor()
	resp := a.ProcessInput("tell me a programming joke")
	assert.Contains(t, a.jokes["programming"], resp)
}

func TestMemory_PrunesHistory(t *testing.T) {
	m := NewMemory(2)
	m.AddInteraction("one", "r1")
	m.AddInteraction("two", "r2")
	m.AddInteraction("three", "r3")

	assert.Equal(t, 2, m.InteractionCount())
}

func TestMemory_Clear(t *testing.T) {
	m := NewMemory(10)
	m.AddInteraction("one", "r1")
	m.SetPreference("name", "Ada")

	m.Clear()

	assert.Zero(t, m.InteractionCount())
	_, ok := m.Preference("name")
	assert.False(t, ok)
}
