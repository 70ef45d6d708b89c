// ABOUTME: Iterative research loop: retrieve, reflect, refine, then synthesize
// ABOUTME: Emits thinking steps live and always terminates within the iteration bound
package research

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/harper/docresearch/internal/graph"
	"github.com/harper/docresearch/internal/llm"
	"github.com/harper/docresearch/internal/models"
	"github.com/harper/docresearch/internal/storage"
	"github.com/harper/docresearch/internal/stream"
)

// Searcher is the query side of a retriever index.
type Searcher interface {
	Search(ctx context.Context, query string, docIDs []string, topK int) ([]models.RetrievalResult, error)
}

// Options tunes a research run.
type Options struct {
	MaxIterations int
	TopK          int
	FusionK       int
	DenseWeight   float64
	LexicalWeight float64
}

// Loop answers questions by searching the indexed documents over several
// iterations, refining its query between rounds, and synthesizing a final
// answer from the accumulated evidence.
type Loop struct {
	generator llm.Generator
	dense     Searcher
	lexical   Searcher
	store     *storage.Store
	graph     *graph.Assembler
	opts      Options
	log       zerolog.Logger
}

// NewLoop wires a research loop over the given retrievers and stores.
func NewLoop(generator llm.Generator, dense, lexical Searcher, store *storage.Store, assembler *graph.Assembler, opts Options, log zerolog.Logger) *Loop {
	return &Loop{
		generator: generator,
		dense:     dense,
		lexical:   lexical,
		store:     store,
		graph:     assembler,
		opts:      opts,
		log:       log.With().Str("component", "research").Logger(),
	}
}

// reflection is the model's judgement of the evidence after an iteration.
type reflection struct {
	Thought      string `json:"thought"`
	Sufficient   bool   `json:"sufficient"`
	RefinedQuery string `json:"refined_query"`
}

// evidence is one retrieved chunk resolved to its stored text and source.
type evidence struct {
	chunk    models.Chunk
	filename string
	score    float64
}

// Run executes the research loop for question and emits the run's events on
// out. scope restricts the search to those document ids; empty means all
// documents. It blocks until the run terminates and always delivers exactly
// one answer or error event last.
func (l *Loop) Run(ctx context.Context, question string, scope []string, out *stream.Stream) {
	docs, err := l.store.ListDocuments()
	if err != nil {
		out.Fail("listing documents: " + err.Error())
		return
	}

	inScope := func(string) bool { return true }
	if len(scope) > 0 {
		set := make(map[string]bool, len(scope))
		for _, id := range scope {
			set[id] = true
		}
		inScope = func(id string) bool { return set[id] }
	}

	var docIDs []string
	filenames := make(map[string]string, len(docs))
	for _, d := range docs {
		if !inScope(d.DocID) {
			continue
		}
		docIDs = append(docIDs, d.DocID)
		filenames[d.DocID] = d.Filename
	}

	query := question
	accumulated := make(map[string]models.RetrievalResult)
	var thoughts []string

	for iteration := 1; iteration <= l.opts.MaxIterations; iteration++ {
		fused, bothFailed := l.retrieve(ctx, query, docIDs)
		for _, r := range fused {
			if prev, ok := accumulated[r.ChunkID]; !ok || r.Score > prev.Score {
				accumulated[r.ChunkID] = r
			}
		}

		step := models.ThinkingStep{Iteration: iteration, RetrievedCount: len(fused)}

		if bothFailed {
			step.Thought = "Retrieval failed this round; answering with the evidence already gathered."
			out.Thinking(step)
			break
		}
		if iteration == l.opts.MaxIterations {
			step.Thought = "Reached the iteration limit; answering with the evidence gathered."
			out.Thinking(step)
			break
		}

		refl, err := l.reflect(ctx, question, query, thoughts, l.gather(accumulated, filenames))
		if err != nil {
			l.log.Warn().Err(err).Int("iteration", iteration).Msg("reflection failed")
			step.Thought = "Could not assess the evidence; answering with what was gathered."
			out.Thinking(step)
			break
		}

		step.Thought = refl.Thought
		thoughts = append(thoughts, refl.Thought)
		out.Thinking(step)

		if refl.Sufficient {
			break
		}
		if q := strings.TrimSpace(refl.RefinedQuery); q != "" {
			query = q
		}
	}

	ev := l.gather(accumulated, filenames)
	answer, err := l.synthesize(ctx, question, ev)
	if err != nil {
		l.log.Error().Err(err).Msg("answer synthesis failed")
		out.Fail("answer generation failed: " + err.Error())
		return
	}

	details := make([]models.RetrievalDetail, len(ev))
	for i, e := range ev {
		details[i] = models.RetrievalDetail{
			ChunkID:  e.chunk.ChunkID,
			DocID:    e.chunk.DocID,
			Filename: e.filename,
			Snippet:  snippet(e.chunk.Text),
			Score:    e.score,
		}
	}

	out.Done(stream.Answer{
		Answer:               answer,
		GraphData:            l.graph.Snapshot(),
		RetrievalDetails:     details,
		RetrievedChunksCount: len(accumulated),
	})
}

// retrieve runs both retrievers and fuses their results. A single backend
// failure degrades to the other's results; bothFailed reports that neither
// produced anything usable.
func (l *Loop) retrieve(ctx context.Context, query string, docIDs []string) (results []models.RetrievalResult, bothFailed bool) {
	denseResults, denseErr := l.dense.Search(ctx, query, docIDs, l.opts.TopK)
	if denseErr != nil {
		l.log.Warn().Err(denseErr).Msg("dense retrieval failed")
	}
	lexicalResults, lexicalErr := l.lexical.Search(ctx, query, docIDs, l.opts.TopK)
	if lexicalErr != nil {
		l.log.Warn().Err(lexicalErr).Msg("lexical retrieval failed")
	}
	if denseErr != nil && lexicalErr != nil {
		return nil, true
	}
	return fuseRRF(denseResults, lexicalResults, l.opts.FusionK, l.opts.DenseWeight, l.opts.LexicalWeight, l.opts.TopK), false
}

func (l *Loop) reflect(ctx context.Context, question, query string, thoughts []string, ev []evidence) (reflection, error) {
	prompt := fmt.Sprintf(reflectionPrompt, question, query, formatThoughts(thoughts), formatEvidence(ev))
	raw, err := l.generator.Generate(ctx, prompt, llm.GenerateConfig{
		Temperature: 0,
		MaxTokens:   300,
	})
	if err != nil {
		return reflection{}, err
	}

	var refl reflection
	if err := json.Unmarshal([]byte(llm.CleanJSONResponse(raw)), &refl); err != nil {
		return reflection{}, fmt.Errorf("parse reflection: %w", err)
	}
	if refl.Thought == "" {
		refl.Thought = "Continuing the search."
	}
	return refl, nil
}

func (l *Loop) synthesize(ctx context.Context, question string, ev []evidence) (string, error) {
	prompt := fmt.Sprintf(answerPrompt, question, formatEvidence(ev))
	return l.generator.Generate(ctx, prompt, llm.GenerateConfig{
		Temperature: 0.3,
		MaxTokens:   1000,
	})
}

// gather resolves accumulated results to their stored chunks, ordered by
// score descending with chunk_id tie-break. Chunks that vanished from the
// store are skipped.
func (l *Loop) gather(accumulated map[string]models.RetrievalResult, filenames map[string]string) []evidence {
	results := make([]models.RetrievalResult, 0, len(accumulated))
	for _, r := range accumulated {
		results = append(results, r)
	}
	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].ChunkID < results[j].ChunkID
	})

	ev := make([]evidence, 0, len(results))
	for _, r := range results {
		chunk, err := l.store.Get(r.ChunkID)
		if err != nil {
			l.log.Warn().Err(err).Str("chunk_id", r.ChunkID).Msg("evidence chunk missing")
			continue
		}
		ev = append(ev, evidence{
			chunk:    chunk,
			filename: filenames[chunk.DocID],
			score:    r.Score,
		})
	}
	return ev
}

const snippetLength = 150

// snippet shortens chunk text for the answer's source attribution.
func snippet(text string) string {
	runes := []rune(strings.TrimSpace(text))
	if len(runes) <= snippetLength {
		return string(runes)
	}
	return string(runes[:snippetLength]) + "..."
}
