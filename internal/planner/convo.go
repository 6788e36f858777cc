// internal/planner/convo.go
package planner

import "sync"

// exchange is one planner round: the prompt sent and the oracle's raw reply.
type exchange struct {
	Prompt string
	Reply  string
}

// conversation is the bounded planning history for one task. The first
// exchange (the one carrying the user's instruction) is always preserved;
// beyond that only the most recent depth exchanges are kept. Context notes
// from the oracle are merged across rounds.
type conversation struct {
	mu      sync.Mutex
	depth   int
	initial *exchange
	recent  []exchange
	context map[string]string
}

func newConversation(depth int) *conversation {
	return &conversation{
		depth:   depth,
		context: map[string]string{},
	}
}

// Record appends one completed round, evicting the oldest non-initial
// exchange past the depth bound.
func (c *conversation) Record(prompt, reply string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e := exchange{Prompt: prompt, Reply: reply}
	if c.initial == nil {
		c.initial = &e
		return
	}
	c.recent = append(c.recent, e)
	if c.depth >= 0 && len(c.recent) > c.depth {
		c.recent = c.recent[len(c.recent)-c.depth:]
	}
}

// MergeContext folds oracle context updates into the carried state.
func (c *conversation) MergeContext(updates map[string]string) {
	if len(updates) == 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for k, v := range updates {
		c.context[k] = v
	}
}

// Context returns a copy of the carried context notes.
func (c *conversation) Context() map[string]string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]string, len(c.context))
	for k, v := range c.context {
		out[k] = v
	}
	return out
}

// Exchanges returns the retained history, initial exchange first.
func (c *conversation) Exchanges() []exchange {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []exchange
	if c.initial != nil {
		out = append(out, *c.initial)
	}
	return append(out, c.recent...)
}

// Len reports how many exchanges are retained.
func (c *conversation) Len() int {
	return len(c.Exchanges())
}
