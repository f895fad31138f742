package prompt

import (
	"errors"
	"strings"
	"testing"

	"github.com/avelasco/docqa/internal/domain/convo"
	"github.com/avelasco/docqa/internal/domain/index"
)

func TestAssemble_BudgetNeverExceeded(t *testing.T) {
	t.Parallel()

	a := NewAssembler("sys", 0.5)
	passages := []index.Passage{
		{Text: strings.Repeat("x", 200), Source: "a.md", Score: 0.9},
		{Text: strings.Repeat("y", 200), Source: "b.md", Score: 0.8},
		{Text: strings.Repeat("z", 200), Source: "c.md", Score: 0.7},
	}
	history := []convo.Turn{
		{Question: strings.Repeat("q", 100), Answer: strings.Repeat("a", 100), Seq: 1},
		{Question: strings.Repeat("q", 100), Answer: strings.Repeat("a", 100), Seq: 2},
	}

	for _, budget := range []int{60, 100, 250, 500, 1000, 5000} {
		p, err := a.Assemble("what?", passages, history, budget)
		if err != nil {
			t.Fatalf("budget %d: Assemble failed: %v", budget, err)
		}
		if len(p.Text) > budget {
			t.Errorf("budget %d: prompt is %d chars", budget, len(p.Text))
		}
	}
}

func TestAssemble_FewerPassagesNeverGrowsPrompt(t *testing.T) {
	t.Parallel()

	a := NewAssembler("sys", 0.5)
	passages := []index.Passage{
		{Text: "alpha passage", Source: "a.md", Score: 0.9},
		{Text: "beta passage", Source: "b.md", Score: 0.5},
	}

	full, err := a.Assemble("what?", passages, nil, 500)
	if err != nil {
		t.Fatalf("Assemble failed: %v", err)
	}
	less, err := a.Assemble("what?", passages[:1], nil, 500)
	if err != nil {
		t.Fatalf("Assemble failed: %v", err)
	}
	none, err := a.Assemble("what?", nil, nil, 500)
	if err != nil {
		t.Fatalf("Assemble failed: %v", err)
	}
	if len(less.Text) > len(full.Text) || len(none.Text) > len(less.Text) {
		t.Errorf("prompt sizes must be monotone in available context: %d, %d, %d",
			len(none.Text), len(less.Text), len(full.Text))
	}
}

func TestAssemble_TooSmallBudget_ReturnsErrPromptTooLarge(t *testing.T) {
	t.Parallel()

	a := NewAssembler("a long system instruction block", 0.5)
	_, err := a.Assemble("and a question", nil, nil, 10)
	if !errors.Is(err, ErrPromptTooLarge) {
		t.Errorf("expected ErrPromptTooLarge, got %v", err)
	}
}

func TestAssemble_HighScorePassageIncludedLowExcluded(t *testing.T) {
	t.Parallel()

	// Budget fits passage 1 but not passage 2: citations must reflect that.
	a := NewAssembler("sys", 0.9)
	passages := []index.Passage{
		{Text: "X is a tool for Y", Source: "x.md", Score: 0.9},
		{Text: "Unrelated " + strings.Repeat("padding ", 40), Source: "junk.md", Score: 0.1},
	}

	p, err := a.Assemble("What is project X?", passages, nil, 150)
	if err != nil {
		t.Fatalf("Assemble failed: %v", err)
	}
	if !strings.Contains(p.Text, "X is a tool for Y") {
		t.Error("prompt must contain the high-score passage")
	}
	if strings.Contains(p.Text, "Unrelated") {
		t.Error("prompt must not contain the dropped passage")
	}
	if !strings.Contains(p.Text, "What is project X?") {
		t.Error("prompt must contain the question")
	}
	if len(p.Included) != 1 || p.Included[0].Source != "x.md" {
		t.Errorf("citations must be only the included passage, got %+v", p.Included)
	}
}

func TestAssemble_HistoryNewestSurvives(t *testing.T) {
	t.Parallel()

	a := NewAssembler("sys", 0.5)
	history := []convo.Turn{
		{Question: "old question " + strings.Repeat("o", 60), Answer: "old answer", Seq: 1},
		{Question: "new question", Answer: "new answer", Seq: 2},
	}

	// Budget admits one turn at most; it must be the newest.
	p, err := a.Assemble("next?", nil, history, 160)
	if err != nil {
		t.Fatalf("Assemble failed: %v", err)
	}
	if !strings.Contains(p.Text, "new question") {
		t.Error("newest turn must survive the budget")
	}
	if strings.Contains(p.Text, "old question") {
		t.Error("oldest turn must be dropped first")
	}
}

func TestAssemble_HistoryRenderedChronologically(t *testing.T) {
	t.Parallel()

	a := NewAssembler("sys", 0.2)
	history := []convo.Turn{
		{Question: "first", Answer: "1", Seq: 1},
		{Question: "second", Answer: "2", Seq: 2},
	}

	p, err := a.Assemble("next?", nil, history, 2000)
	if err != nil {
		t.Fatalf("Assemble failed: %v", err)
	}
	iFirst := strings.Index(p.Text, "first")
	iSecond := strings.Index(p.Text, "second")
	if iFirst < 0 || iSecond < 0 || iFirst > iSecond {
		t.Errorf("history must read oldest to newest (first at %d, second at %d)", iFirst, iSecond)
	}
}

func TestAssemble_QuestionComesLast(t *testing.T) {
	t.Parallel()

	a := NewAssembler("", 0)
	p, err := a.Assemble("the question", []index.Passage{{Text: "ctx", Source: "s", Score: 1}}, nil, 2000)
	if err != nil {
		t.Fatalf("Assemble failed: %v", err)
	}
	if !strings.HasSuffix(p.Text, "Question: the question\nAnswer:") {
		t.Errorf("prompt must end with the question, got tail %q", p.Text[len(p.Text)-40:])
	}
	if !strings.HasPrefix(p.Text, DefaultSystem) {
		t.Error("empty system must fall back to DefaultSystem")
	}
}

func TestAssemble_UnsortedPassages_AdmittedByScore(t *testing.T) {
	t.Parallel()

	a := NewAssembler("sys", 0.9)
	passages := []index.Passage{
		{Text: "low " + strings.Repeat("l", 80), Source: "low.md", Score: 0.2},
		{Text: "high", Source: "high.md", Score: 0.95},
	}

	p, err := a.Assemble("q?", passages, nil, 120)
	if err != nil {
		t.Fatalf("Assemble failed: %v", err)
	}
	if len(p.Included) != 1 || p.Included[0].Source != "high.md" {
		t.Errorf("highest score must be admitted first, got %+v", p.Included)
	}
}
