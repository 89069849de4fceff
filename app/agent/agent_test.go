package agent

import (
	"context"
	"errors"
	"testing"

	"rag/model"
	"rag/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubGenerator struct {
	deltas     []model.Delta
	startErr   error
	lastPrompt string
}

func (g *stubGenerator) Generate(ctx context.Context, prompt string) (<-chan model.Delta, error) {
	g.lastPrompt = prompt
	if g.startErr != nil {
		return nil, g.startErr
	}
	out := make(chan model.Delta)
	go func() {
		defer close(out)
		for _, d := range g.deltas {
			out <- d
			if d.Err != nil {
				return
			}
		}
	}()
	return out, nil
}

func scored(content, source string) types.ScoredChunk {
	return types.ScoredChunk{Chunk: types.Chunk{Content: content, Source: source}, Similarity: 0.9}
}

func collect(t *testing.T, events <-chan Event) []Event {
	t.Helper()
	var all []Event
	for ev := range events {
		all = append(all, ev)
	}
	return all
}

func TestSynthesize_SourcesPrecedeAnswers(t *testing.T) {
	gen := &stubGenerator{deltas: []model.Delta{{Text: "The sky "}, {Text: "is blue."}}}
	s := New(gen, 0)

	chunks := []types.ScoredChunk{
		scored("The sky is blue.", "facts.txt"),
		scored("Water boils at 100C.", "facts.txt"),
		scored("Rivers flow to the sea.", "geo.txt"),
	}

	events := collect(t, s.Synthesize(context.Background(), "What color is the sky?", chunks))
	require.NotEmpty(t, events)

	require.NotNil(t, events[0].Sources, "first event must carry sources")
	assert.Equal(t, []string{"facts.txt", "geo.txt"}, events[0].Sources)

	var answer string
	for _, ev := range events[1:] {
		require.Nil(t, ev.Sources, "only the first event carries sources")
		require.NoError(t, ev.Err)
		answer += ev.Answer
	}
	assert.Equal(t, "The sky is blue.", answer)
}

func TestSynthesize_EmptyStore(t *testing.T) {
	gen := &stubGenerator{deltas: []model.Delta{{Text: "I have no stored knowledge on that."}}}
	s := New(gen, 0)

	events := collect(t, s.Synthesize(context.Background(), "anything?", nil))
	require.NotEmpty(t, events)

	require.NotNil(t, events[0].Sources)
	assert.Empty(t, events[0].Sources, "empty store still yields a sources event with an empty list")

	assert.Contains(t, gen.lastPrompt, "No relevant context found")
	assert.NotContains(t, gen.lastPrompt, "START REFERENCE")
}

func TestSynthesize_MidStreamErrorIsTerminal(t *testing.T) {
	boom := errors.New("stream interrupted")
	gen := &stubGenerator{deltas: []model.Delta{{Text: "partial "}, {Err: boom}}}
	s := New(gen, 0)

	events := collect(t, s.Synthesize(context.Background(), "q", []types.ScoredChunk{scored("c", "s")}))

	require.GreaterOrEqual(t, len(events), 3)
	last := events[len(events)-1]
	require.Error(t, last.Err)
	assert.ErrorIs(t, last.Err, boom)

	// Partial answer text was delivered before the terminal error.
	assert.Equal(t, "partial ", events[1].Answer)
}

func TestSynthesize_StartErrorAfterSources(t *testing.T) {
	gen := &stubGenerator{startErr: errors.New("provider down")}
	s := New(gen, 0)

	events := collect(t, s.Synthesize(context.Background(), "q", nil))
	require.Len(t, events, 2)
	assert.NotNil(t, events[0].Sources)
	assert.Error(t, events[1].Err)
}

func TestBuildPrompt_NumberedReferences(t *testing.T) {
	s := New(&stubGenerator{}, 0)
	chunks := []types.ScoredChunk{
		scored("fact one", "a.txt"),
		scored("fact two", "b.txt"),
		scored("fact three", "a.txt"),
	}

	prompt := s.BuildPrompt("q", chunks)
	assert.Contains(t, prompt, "START REFERENCE [1] (FILE: a.txt)")
	assert.Contains(t, prompt, "START REFERENCE [2] (FILE: b.txt)")
	assert.Contains(t, prompt, "[1]: a.txt")
	assert.Contains(t, prompt, "[2]: b.txt")
	assert.Contains(t, prompt, "QUESTION:\nq")
}

func TestBuildPrompt_TokenBudgetTrimsTail(t *testing.T) {
	// Budget fits roughly one reference block; the ranked tail is dropped
	// but the top chunk always survives.
	s := New(&stubGenerator{}, 40)

	chunks := []types.ScoredChunk{
		scored("the most relevant chunk of them all", "top.txt"),
		scored("a much less relevant chunk that should be trimmed away entirely from the context", "tail.txt"),
	}

	prompt := s.BuildPrompt("q", chunks)
	assert.Contains(t, prompt, "the most relevant chunk")
	assert.NotContains(t, prompt, "trimmed away entirely")
}
