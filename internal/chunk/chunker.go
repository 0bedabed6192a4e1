package chunk

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"
	"time"

	scherr "github.com/scholaris-ai/scholaris/internal/errors"
)

// Chunker splits document text into token-bounded chunks on sentence
// boundaries, with a trailing-sentence overlap window between
// consecutive chunks. When sections are supplied, each section is
// chunked independently so no chunk spans two sections; chunk indices
// are assigned globally across sections in document order.
type Chunker struct {
	chunkSize    int
	chunkOverlap int
}

// NewChunker creates a chunker with the given token budgets.
// Zero values fall back to the defaults.
func NewChunker(chunkSize, chunkOverlap int) (*Chunker, error) {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if chunkOverlap < 0 {
		chunkOverlap = DefaultChunkOverlap
	}
	if chunkOverlap >= chunkSize {
		return nil, scherr.ValidationError(
			fmt.Sprintf("chunk overlap %d must be smaller than chunk size %d", chunkOverlap, chunkSize), nil)
	}
	// Warm the tokenizer so the first Chunk call doesn't pay for it.
	if _, err := encoding(); err != nil {
		return nil, scherr.New(scherr.ErrCodeChunkingFailed, "tokenizer unavailable", err)
	}
	return &Chunker{chunkSize: chunkSize, chunkOverlap: chunkOverlap}, nil
}

// Chunk splits text into chunks for the given document. When sections
// is non-empty each section is chunked independently; otherwise the
// whole text is treated as one unnamed region. An empty document
// yields zero chunks.
func (c *Chunker) Chunk(documentID, text string, sections []Section) ([]*Chunk, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	var chunks []*Chunk
	var err error

	if len(sections) > 0 {
		for _, sec := range sections {
			chunks, err = c.appendRegion(chunks, documentID, sec.Content, sec.Name, sec.Page, sec.StartPos)
			if err != nil {
				return nil, err
			}
		}
	} else {
		chunks, err = c.appendRegion(chunks, documentID, text, "", 0, 0)
		if err != nil {
			return nil, err
		}
	}

	slog.Debug("document chunked",
		slog.String("document_id", documentID),
		slog.Int("sections", len(sections)),
		slog.Int("chunks", len(chunks)))

	return chunks, nil
}

// appendRegion chunks one region (a section or the whole document) and
// appends the results, continuing the global chunk index.
func (c *Chunker) appendRegion(chunks []*Chunk, documentID, text, section string, page, startOffset int) ([]*Chunk, error) {
	sentences := splitSentences(text)
	if len(sentences) == 0 {
		return chunks, nil
	}

	var (
		buf       []string
		bufTokens int
		curStart  = startOffset
	)

	emit := func() error {
		content := strings.Join(buf, " ")
		ck, err := c.newChunk(documentID, len(chunks), content, bufTokens, section, page, curStart)
		if err != nil {
			return err
		}
		chunks = append(chunks, ck)
		return nil
	}

	for _, sentence := range sentences {
		tokens, err := CountTokens(sentence)
		if err != nil {
			return nil, scherr.New(scherr.ErrCodeChunkingFailed, "token count failed", err)
		}

		if bufTokens+tokens > c.chunkSize && len(buf) > 0 {
			content := strings.Join(buf, " ")
			if err := emit(); err != nil {
				return nil, err
			}

			seed, seedTokens, err := c.overlapWindow(buf)
			if err != nil {
				return nil, err
			}
			curStart += len(content) - len(seed)
			if seed != "" {
				buf = []string{seed}
			} else {
				buf = nil
			}
			bufTokens = seedTokens
		}

		buf = append(buf, sentence)
		bufTokens += tokens
	}

	if len(buf) > 0 {
		if err := emit(); err != nil {
			return nil, err
		}
	}

	return chunks, nil
}

// overlapWindow collects trailing sentences of the just-emitted buffer,
// in reverse, until their combined token count would exceed the overlap
// budget, then restores document order. Returns the joined seed text
// and its token count; an empty window yields ("", 0).
func (c *Chunker) overlapWindow(sentences []string) (string, int, error) {
	if c.chunkOverlap == 0 || len(sentences) == 0 {
		return "", 0, nil
	}

	var window []string
	total := 0
	for i := len(sentences) - 1; i >= 0; i-- {
		tokens, err := CountTokens(sentences[i])
		if err != nil {
			return "", 0, scherr.New(scherr.ErrCodeChunkingFailed, "token count failed", err)
		}
		if total+tokens > c.chunkOverlap {
			break
		}
		window = append([]string{sentences[i]}, window...)
		total += tokens
	}

	return strings.Join(window, " "), total, nil
}

func (c *Chunker) newChunk(documentID string, index int, content string, tokens int, section string, page, startChar int) (*Chunk, error) {
	return &Chunk{
		ID:         ChunkID(documentID, index),
		DocumentID: documentID,
		Content:    content,
		ChunkIndex: index,
		TokenCount: tokens,
		Section:    section,
		PageNumber: page,
		StartChar:  startChar,
		EndChar:    startChar + len(content),
		CreatedAt:  time.Now().UTC(),
	}, nil
}

// ChunkID derives the stable chunk identifier from its document and
// position. Re-ingesting a document reproduces the same ids, which is
// what makes "replace wholesale" a delete-then-insert of the same keys.
func ChunkID(documentID string, index int) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s:%d", documentID, index)))
	return hex.EncodeToString(sum[:])[:16]
}
