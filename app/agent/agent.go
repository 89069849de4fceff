package agent

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"rag/model"
	"rag/types"

	"github.com/pkoukk/tiktoken-go"
)

// Event is one step of a synthesized answer stream. Exactly one event with a
// non-nil Sources slice leads the stream; Answer events follow in
// concatenation order; a non-nil Err is terminal.
type Event struct {
	Sources []string
	Answer  string
	Err     error
}

// Synthesizer builds a grounded prompt from retrieved chunks and streams the
// generated answer.
type Synthesizer struct {
	generator        model.Generator
	logger           *slog.Logger
	maxContextTokens int
	enc              *tiktoken.Tiktoken
}

func New(generator model.Generator, maxContextTokens int) *Synthesizer {
	// Token counts only budget the context, so the gpt-3.5 encoding is a
	// close enough approximation for any of the wired providers.
	enc, err := tiktoken.EncodingForModel("gpt-3.5-turbo")
	if err != nil {
		slog.Default().Warn("tiktoken unavailable, falling back to byte estimate", "error", err)
	}
	return &Synthesizer{
		generator:        generator,
		logger:           slog.Default(),
		maxContextTokens: maxContextTokens,
		enc:              enc,
	}
}

// Synthesize streams the answer for a question grounded on the retrieved
// chunks. The stream is finite and not restartable; when the caller's context
// is cancelled the generator stream is dropped and no more events are sent.
func (s *Synthesizer) Synthesize(ctx context.Context, question string, chunks []types.ScoredChunk) <-chan Event {
	out := make(chan Event)

	go func() {
		defer close(out)

		sources := distinctSources(chunks)
		if !send(ctx, out, Event{Sources: sources}) {
			return
		}

		prompt := s.BuildPrompt(question, chunks)
		s.logger.Debug("prompt assembled", "question", question, "chunks", len(chunks), "sources", len(sources))

		deltas, err := s.generator.Generate(ctx, prompt)
		if err != nil {
			send(ctx, out, Event{Err: err})
			return
		}

		for d := range deltas {
			if d.Err != nil {
				send(ctx, out, Event{Err: d.Err})
				return
			}
			if d.Text == "" {
				continue
			}
			if !send(ctx, out, Event{Answer: d.Text}) {
				return
			}
		}
	}()

	return out
}

// distinctSources deduplicates chunk sources keeping first-encountered order.
// The result is never nil so an empty store still yields a sources event
// with an empty list.
func distinctSources(chunks []types.ScoredChunk) []string {
	sources := make([]string, 0, len(chunks))
	seen := make(map[string]struct{}, len(chunks))
	for _, c := range chunks {
		if _, ok := seen[c.Source]; ok {
			continue
		}
		seen[c.Source] = struct{}{}
		sources = append(sources, c.Source)
	}
	return sources
}

// BuildPrompt assembles the generation prompt: numbered reference blocks per
// retrieved chunk, a source key mapping reference ids to source labels, and
// the citation instructions. Chunks are ranked, so when the token budget is
// exceeded the least relevant tail is dropped.
func (s *Synthesizer) BuildPrompt(question string, chunks []types.ScoredChunk) string {
	sources := distinctSources(chunks)
	sourceIDs := make(map[string]int, len(sources))
	for i, src := range sources {
		sourceIDs[src] = i + 1
	}

	var blocks []string
	used := 0
	for _, c := range chunks {
		id := sourceIDs[c.Source]
		block := fmt.Sprintf("--- START REFERENCE [%d] (FILE: %s) ---\n%s\n--- END REFERENCE [%d] ---",
			id, c.Source, c.Content, id)
		cost := s.countTokens(block)
		if s.maxContextTokens > 0 && used+cost > s.maxContextTokens && len(blocks) > 0 {
			s.logger.Debug("context budget reached", "used_tokens", used, "kept_chunks", len(blocks))
			break
		}
		blocks = append(blocks, block)
		used += cost
	}

	contextText := "No relevant context found. You have no stored knowledge to answer from."
	if len(blocks) > 0 {
		contextText = strings.Join(blocks, "\n\n---\n\n")
	}

	var keyLines []string
	for _, src := range sources {
		keyLines = append(keyLines, fmt.Sprintf("[%d]: %s", sourceIDs[src], src))
	}
	sourceKey := "None."
	if len(keyLines) > 0 {
		sourceKey = strings.Join(keyLines, "\n")
	}

	return fmt.Sprintf(`You are a precision-oriented AI assistant with access to a Knowledge Base.

KNOWLEDGE BASE CONTEXT (Use these for specific facts):
%s

SOURCE KEY (Reference IDs for citations):
%s

CRITICAL INSTRUCTIONS:
1. CITATION ACCURACY:
   - Every fact you take from the Context MUST be cited immediately with its REFERENCE ID, e.g., "The release is in October [1]."
   - Verify the SOURCE FILE and REFERENCE ID carefully. DO NOT attribute everything to [1] if it came from a different reference block.
   - If a fact is not in the context, do NOT use a citation number.
2. NO CONTEXT: If the context is empty or irrelevant, say that the knowledge base holds no information on the question. Never invent citations.
3. STRUCTURE: Use clear paragraphs and **bold text** for key names/terms.

QUESTION:
%s
`, contextText, sourceKey, question)
}

func (s *Synthesizer) countTokens(text string) int {
	if s.enc == nil {
		return len(text) / 4
	}
	return len(s.enc.Encode(text, nil, nil))
}

func send(ctx context.Context, out chan<- Event, ev Event) bool {
	select {
	case out <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}
