package chunk

import (
	"testing"

	"github.com/verascope/verascope/internal/domain"
)

func TestSplit_NeverCrossesPageBoundary(t *testing.T) {
	c := New(Params{TargetLength: 10, Overlap: 2})

	pages := []domain.Page{
		{DocHash: "d1", PageNumber: 1, Text: "0123456789abcdefghij"},
		{DocHash: "d1", PageNumber: 2, Text: "klmnopqrst"},
	}

	chunks := c.Split(pages)
	for _, ch := range chunks {
		if ch.PageNumber == 1 && (ch.StartOffset < 0 || ch.EndOffset > len(pages[0].Text)) {
			t.Errorf("chunk %+v out of bounds for page 1", ch)
		}
	}

	for i := 1; i < len(chunks); i++ {
		if chunks[i].PageNumber < chunks[i-1].PageNumber {
			t.Errorf("chunks not in (page, start_offset) order: %+v before %+v", chunks[i-1], chunks[i])
		}
	}
}

func TestSplit_IdempotentChunkIDs(t *testing.T) {
	c := New(DefaultParams())
	pages := []domain.Page{{DocHash: "d1", PageNumber: 1, Text: "some long disclosure text repeated several times over"}}

	first := c.Split(pages)
	second := c.Split(pages)

	if len(first) != len(second) {
		t.Fatalf("len(first) = %d, len(second) = %d, want equal", len(first), len(second))
	}
	for i := range first {
		if first[i].ChunkID != second[i].ChunkID {
			t.Errorf("ChunkID[%d] = %s, %s, want equal for identical input", i, first[i].ChunkID, second[i].ChunkID)
		}
	}
}

func TestSplit_EmptyPageYieldsNoChunks(t *testing.T) {
	c := New(DefaultParams())
	pages := []domain.Page{{DocHash: "d1", PageNumber: 1, Text: ""}}

	chunks := c.Split(pages)
	if len(chunks) != 0 {
		t.Errorf("len(chunks) = %d, want 0 for empty page", len(chunks))
	}
}

func TestSplit_OrderedByStartOffsetWithinPage(t *testing.T) {
	c := New(Params{TargetLength: 5, Overlap: 1})
	pages := []domain.Page{{DocHash: "d1", PageNumber: 1, Text: "abcdefghijklmnopqrstuvwxyz"}}

	chunks := c.Split(pages)
	for i := 1; i < len(chunks); i++ {
		if chunks[i].StartOffset <= chunks[i-1].StartOffset {
			t.Errorf("chunks not in ascending start_offset order at index %d", i)
		}
	}
}
