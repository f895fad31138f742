package ingest

import (
	"strings"
	"testing"
)

func TestSplitter_ShortTextSingleChunk(t *testing.T) {
	t.Parallel()

	s := NewSplitter(500, 150)
	got := s.Split("a short paragraph")
	if len(got) != 1 || got[0] != "a short paragraph" {
		t.Errorf("Split = %q; want single chunk", got)
	}
}

func TestSplitter_EmptyInput(t *testing.T) {
	t.Parallel()

	s := NewSplitter(500, 150)
	if got := s.Split("   \n\n  "); len(got) != 0 {
		t.Errorf("expected no chunks for blank input, got %q", got)
	}
}

func TestSplitter_ChunksRespectSizeCap(t *testing.T) {
	t.Parallel()

	s := NewSplitter(100, 20)
	var parts []string
	for i := 0; i < 30; i++ {
		parts = append(parts, strings.Repeat("word ", 5))
	}
	text := strings.Join(parts, "\n\n")

	for i, chunk := range s.Split(text) {
		if n := len([]rune(chunk)); n > 100 {
			t.Errorf("chunk %d is %d runes, cap is 100", i, n)
		}
	}
}

func TestSplitter_PrefersParagraphBreaks(t *testing.T) {
	t.Parallel()

	s := NewSplitter(40, 0)
	text := "first paragraph here\n\nsecond paragraph here"
	got := s.Split(text)
	if len(got) != 2 {
		t.Fatalf("expected 2 chunks, got %d: %q", len(got), got)
	}
	if got[0] != "first paragraph here" || got[1] != "second paragraph here" {
		t.Errorf("paragraphs not kept intact: %q", got)
	}
}

func TestSplitter_OverlapCarriedBetweenChunks(t *testing.T) {
	t.Parallel()

	s := NewSplitter(30, 10)
	text := strings.Repeat("abcdefghij", 10) // no separators: window path
	got := s.Split(text)
	if len(got) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(got))
	}
	for i := 1; i < len(got); i++ {
		prevTail := got[i-1][len(got[i-1])-10:]
		if !strings.HasPrefix(got[i], prevTail) {
			t.Errorf("chunk %d does not start with previous tail %q: %q", i, prevTail, got[i])
		}
	}
}

func TestSplitter_CJKSafeCuts(t *testing.T) {
	t.Parallel()

	s := NewSplitter(10, 2)
	text := strings.Repeat("知识库文档加载", 10)
	for i, chunk := range s.Split(text) {
		if !utf8Valid(chunk) {
			t.Errorf("chunk %d cut mid-rune: %q", i, chunk)
		}
		if len([]rune(chunk)) > 10 {
			t.Errorf("chunk %d exceeds rune cap: %q", i, chunk)
		}
	}
}

func utf8Valid(s string) bool {
	for _, r := range s {
		if r == '�' {
			return false
		}
	}
	return true
}

func TestNewSplitter_SubstitutesBadValues(t *testing.T) {
	t.Parallel()

	s := NewSplitter(0, -1)
	if s.ChunkSize != DefaultChunkSize || s.Overlap != DefaultOverlap {
		t.Errorf("expected defaults, got %+v", s)
	}

	s = NewSplitter(9, 100) // overlap >= chunk size
	if s.Overlap >= s.ChunkSize {
		t.Errorf("overlap %d must stay below chunk size %d", s.Overlap, s.ChunkSize)
	}
}
