package chunker

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/custodia-labs/docchat/internal/core/domain"
)

// words builds a space-separated string of n distinct words.
func words(n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = "w" + string(rune('a'+i%26))
	}
	return strings.Join(parts, " ")
}

func TestNew(t *testing.T) {
	t.Run("default values", func(t *testing.T) {
		p := New()
		if p.maxWords != DefaultMaxWords {
			t.Errorf("expected maxWords %d, got %d", DefaultMaxWords, p.maxWords)
		}
		if p.overlapWords != DefaultOverlapWords {
			t.Errorf("expected overlapWords %d, got %d", DefaultOverlapWords, p.overlapWords)
		}
	})

	t.Run("custom max words", func(t *testing.T) {
		p := New(WithMaxWords(500))
		if p.maxWords != 500 {
			t.Errorf("expected maxWords 500, got %d", p.maxWords)
		}
	})

	t.Run("custom overlap", func(t *testing.T) {
		p := New(WithOverlapWords(100))
		if p.overlapWords != 100 {
			t.Errorf("expected overlapWords 100, got %d", p.overlapWords)
		}
	})

	t.Run("overlap exceeds max words", func(t *testing.T) {
		p := New(WithMaxWords(100), WithOverlapWords(150))
		if p.overlapWords >= p.maxWords {
			t.Error("overlap should be reduced when it exceeds max words")
		}
	})

	t.Run("zero values ignored", func(t *testing.T) {
		p := New(WithMaxWords(0), WithOverlapWords(-1))
		if p.maxWords != DefaultMaxWords {
			t.Errorf("expected default maxWords, got %d", p.maxWords)
		}
		if p.overlapWords != DefaultOverlapWords {
			t.Errorf("expected default overlapWords, got %d", p.overlapWords)
		}
	})
}

func TestBuild_AppliesChunkingSettings(t *testing.T) {
	proc, err := Build(domain.ChunkingSettings{MaxWords: 200, OverlapWords: 20})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	p, ok := proc.(*Processor)
	if !ok {
		t.Fatalf("expected *Processor, got %T", proc)
	}
	if p.maxWords != 200 {
		t.Errorf("expected maxWords 200, got %d", p.maxWords)
	}
	if p.overlapWords != 20 {
		t.Errorf("expected overlapWords 20, got %d", p.overlapWords)
	}
}

func TestBuild_ZeroMaxWordsUsesDefault(t *testing.T) {
	proc, err := Build(domain.ChunkingSettings{OverlapWords: 10})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	p := proc.(*Processor)
	if p.maxWords != DefaultMaxWords {
		t.Errorf("expected default maxWords, got %d", p.maxWords)
	}
	if p.overlapWords != 10 {
		t.Errorf("expected overlapWords 10, got %d", p.overlapWords)
	}
}

func TestProcessor_Name(t *testing.T) {
	p := New()
	if p.Name() != "chunker" {
		t.Errorf("expected name 'chunker', got '%s'", p.Name())
	}
}

func TestProcessor_Process_EmptyText(t *testing.T) {
	p := New()
	doc := &domain.Document{ID: "test-doc", Filename: "empty.txt"}

	_, err := p.Process(context.Background(), doc, "   \n\t  ", nil)
	if !errors.Is(err, domain.ErrEmptyDocument) {
		t.Errorf("expected ErrEmptyDocument, got %v", err)
	}
}

func TestProcessor_Process_SmallText(t *testing.T) {
	p := New(WithMaxWords(100), WithOverlapWords(20))
	doc := &domain.Document{ID: "test-doc"}

	chunks, err := p.Process(context.Background(), doc, "This is a small piece of content.", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk for small text, got %d", len(chunks))
	}

	if chunks[0].DocumentID != doc.ID {
		t.Errorf("expected DocumentID '%s', got '%s'", doc.ID, chunks[0].DocumentID)
	}
	if chunks[0].Content != "This is a small piece of content." {
		t.Errorf("expected content to match input text, got %q", chunks[0].Content)
	}
	if chunks[0].Position != 0 {
		t.Errorf("expected position 0, got %d", chunks[0].Position)
	}
}

func TestProcessor_Process_LargeText(t *testing.T) {
	p := New(WithMaxWords(100), WithOverlapWords(20))

	text := words(250)
	doc := &domain.Document{ID: "test-doc"}

	chunks, err := p.Process(context.Background(), doc, text, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(chunks) < 2 {
		t.Errorf("expected multiple chunks, got %d", len(chunks))
	}

	// Verify chunk IDs are unique
	seenIDs := make(map[string]bool)
	for _, chunk := range chunks {
		if seenIDs[chunk.ID] {
			t.Errorf("duplicate chunk ID: %s", chunk.ID)
		}
		seenIDs[chunk.ID] = true
	}

	// Verify positions are sequential
	for i, chunk := range chunks {
		if chunk.Position != i {
			t.Errorf("expected position %d, got %d", i, chunk.Position)
		}
	}

	// Verify all chunks have DocumentID set
	for _, chunk := range chunks {
		if chunk.DocumentID != doc.ID {
			t.Errorf("expected DocumentID '%s', got '%s'", doc.ID, chunk.DocumentID)
		}
	}

	// Verify first chunk is full size
	if n := len(strings.Fields(chunks[0].Content)); n != 100 {
		t.Errorf("expected first chunk to hold 100 words, got %d", n)
	}
}

func TestProcessor_Process_ExactChunkSize(t *testing.T) {
	p := New(WithMaxWords(50), WithOverlapWords(0))

	text := words(100) // Exactly 2 chunks
	doc := &domain.Document{ID: "test-doc"}

	chunks, err := p.Process(context.Background(), doc, text, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(chunks) != 2 {
		t.Errorf("expected 2 chunks, got %d", len(chunks))
	}
}

func TestProcessor_Process_OverlappingWindows(t *testing.T) {
	p := New(WithMaxWords(10), WithOverlapWords(3))

	text := words(20)
	doc := &domain.Document{ID: "test-doc"}

	chunks, err := p.Process(context.Background(), doc, text, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// With size 10 and overlap 3 the step is 7, so windows are
	// words 0-9, 7-16 and 14-19.
	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(chunks))
	}

	first := strings.Fields(chunks[0].Content)
	second := strings.Fields(chunks[1].Content)
	if len(first) != 10 {
		t.Errorf("expected first chunk to hold 10 words, got %d", len(first))
	}
	if first[7] != second[0] {
		t.Errorf("expected overlapping words at the boundary, got %q and %q", first[7], second[0])
	}
}

func TestProcessor_Process_IgnoresInputChunks(t *testing.T) {
	p := New(WithMaxWords(100))

	existingChunks := []domain.Chunk{
		{ID: "existing", Content: "should be ignored"},
	}

	doc := &domain.Document{ID: "test-doc"}

	chunks, err := p.Process(context.Background(), doc, "New content to chunk", existingChunks)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Should create new chunks, not return existing ones
	for _, chunk := range chunks {
		if chunk.ID == "existing" {
			t.Error("existing chunks should be ignored")
		}
	}
}
