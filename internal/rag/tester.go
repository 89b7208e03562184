// Package rag implements the admin retrieval tester: upload a document,
// process it into embedded chunks, then ask questions against it.
package rag

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	apperrors "github.com/astroconsult/consult-server-go/internal/errors"
)

type DocumentStatus string

const (
	StatusUploaded  DocumentStatus = "uploaded"
	StatusProcessed DocumentStatus = "processed"
)

// Chunked is a chunk with its embedding.
type Chunked struct {
	Content   string
	Embedding []float32
}

type Document struct {
	ID         string         `json:"id"`
	Filename   string         `json:"filename"`
	Status     DocumentStatus `json:"status"`
	Characters int            `json:"characters"`
	ChunkCount int            `json:"chunks"`
	CreatedAt  time.Time      `json:"createdAt"`

	text   string
	chunks []Chunked
}

type ChatResult struct {
	Answer  string        `json:"answer"`
	Context string        `json:"context"`
	Chunks  []ScoredChunk `json:"chunks"`
}

// Answerer replies to a question grounded on passages.
type Answerer interface {
	Answer(ctx context.Context, question string, passages []string) (string, error)
}

// Tester holds documents in memory; they are scratch data for prompt tuning.
type Tester struct {
	embedder  Embedder
	answerer  Answerer
	chunking  ChunkConfig
	threshold float32

	mu   sync.RWMutex
	docs map[string]*Document
}

func NewTester(embedder Embedder, answerer Answerer, threshold float32) *Tester {
	return &Tester{
		embedder:  embedder,
		answerer:  answerer,
		chunking:  DefaultChunkConfig(),
		threshold: threshold,
		docs:      make(map[string]*Document),
	}
}

func (t *Tester) Upload(filename string, data []byte) (*Document, error) {
	text, err := ExtractText(filename, data)
	if err != nil {
		return nil, apperrors.InvalidInput("file", err.Error())
	}

	doc := &Document{
		ID:         uuid.NewString(),
		Filename:   filename,
		Status:     StatusUploaded,
		Characters: len(text),
		CreatedAt:  time.Now(),
		text:       text,
	}

	t.mu.Lock()
	t.docs[doc.ID] = doc
	t.mu.Unlock()

	log.Info().Str("documentId", doc.ID).Str("filename", filename).Int("characters", len(text)).Msg("rag document uploaded")
	return doc.snapshot(), nil
}

// Process chunks and embeds a document. Reprocessing a processed document
// replaces its chunks.
func (t *Tester) Process(ctx context.Context, id string) (*Document, error) {
	t.mu.RLock()
	doc, ok := t.docs[id]
	var text string
	if ok {
		text = doc.text
	}
	t.mu.RUnlock()
	if !ok {
		return nil, apperrors.NotFound("Document")
	}

	var chunks []Chunked
	for _, c := range Chunk(text, t.chunking) {
		vec, err := t.embedder.Embed(ctx, c)
		if err != nil {
			return nil, apperrors.External("embedding", err)
		}
		chunks = append(chunks, Chunked{Content: c, Embedding: vec})
	}

	t.mu.Lock()
	doc.chunks = chunks
	doc.ChunkCount = len(chunks)
	doc.Status = StatusProcessed
	snap := doc.snapshot()
	t.mu.Unlock()

	log.Info().Str("documentId", id).Int("chunks", len(chunks)).Msg("rag document processed")
	return snap, nil
}

func (t *Tester) Chat(ctx context.Context, id, question string) (*ChatResult, error) {
	if question == "" {
		return nil, apperrors.MissingRequired("question")
	}

	t.mu.RLock()
	doc, ok := t.docs[id]
	var status DocumentStatus
	var chunks []Chunked
	if ok {
		status = doc.Status
		chunks = doc.chunks
	}
	t.mu.RUnlock()

	if !ok {
		return nil, apperrors.NotFound("Document")
	}
	if status != StatusProcessed {
		return nil, apperrors.Conflict(fmt.Sprintf("Document is %s; process it before chatting", status))
	}

	query, err := t.embedder.Embed(ctx, question)
	if err != nil {
		return nil, apperrors.External("embedding", err)
	}

	top := TopChunks(query, chunks, NumRelevantChunks, t.threshold)
	passages := make([]string, len(top))
	for i, c := range top {
		passages[i] = c.Content
	}

	answer, err := t.answerer.Answer(ctx, question, passages)
	if err != nil {
		return nil, apperrors.External("oracle", err)
	}

	var contextText string
	for i, p := range passages {
		if i > 0 {
			contextText += "\n\n"
		}
		contextText += p
	}

	return &ChatResult{Answer: answer, Context: contextText, Chunks: top}, nil
}

func (t *Tester) Get(id string) (*Document, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	doc, ok := t.docs[id]
	if !ok {
		return nil, false
	}
	return doc.snapshot(), true
}

func (d *Document) snapshot() *Document {
	return &Document{
		ID:         d.ID,
		Filename:   d.Filename,
		Status:     d.Status,
		Characters: d.Characters,
		ChunkCount: d.ChunkCount,
		CreatedAt:  d.CreatedAt,
	}
}
