// Package prompt assembles the final completion prompt from system
// instructions, retrieved context, conversation history and the question,
// under a hard size budget measured in characters.
//
// The unit is characters everywhere (not tokens): the session layer caps
// history in turns and this package caps the rendered prompt in characters,
// so one consistent pair of units is used across the engine.
package prompt

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/avelasco/docqa/internal/domain/convo"
	"github.com/avelasco/docqa/internal/domain/index"
)

// ErrPromptTooLarge means the system instructions plus the bare question
// already exceed the budget. Never silently truncated below correctness.
var ErrPromptTooLarge = errors.New("prompt: budget too small for instructions and question")

// DefaultSystem is the instruction block used when no override is configured.
const DefaultSystem = "You are a documentation assistant. Answer the question using only the " +
	"provided context passages and the conversation so far. Cite the sources you used. " +
	"If the context does not contain the answer, say you do not know."

// defaultContextShare is the fraction of the free budget reserved for
// context passages before history is admitted.
const defaultContextShare = 0.5

// Prompt is an assembled prompt plus the passages that actually made it in.
// Included is what the answer may cite; passages dropped by the budget are
// not citations.
type Prompt struct {
	Text     string
	Included []index.Passage
}

// Assembler renders prompts under a character budget.
type Assembler struct {
	system       string
	contextShare float64
}

// NewAssembler creates an Assembler with the given system instructions.
// Empty system falls back to DefaultSystem; contextShare outside (0, 1)
// falls back to the default split.
func NewAssembler(system string, contextShare float64) *Assembler {
	if system == "" {
		system = DefaultSystem
	}
	if contextShare <= 0 || contextShare >= 1 {
		contextShare = defaultContextShare
	}
	return &Assembler{system: system, contextShare: contextShare}
}

// Assemble builds the prompt:
//  1. reserve the system instructions and the question (mandatory parts);
//  2. admit history turns newest-first into the budget minus a reserved
//     context allowance;
//  3. admit passages highest-score-first into whatever remains;
//  4. render with history oldest-first so the model reads chronologically.
//
// The rendered text never exceeds budget. When even the mandatory parts do
// not fit, returns ErrPromptTooLarge.
func (a *Assembler) Assemble(question string, passages []index.Passage, history []convo.Turn, budget int) (*Prompt, error) {
	head := a.system + "\n\n"
	tail := "Question: " + question + "\nAnswer:"

	fixed := len(head) + len(tail)
	if fixed > budget {
		return nil, fmt.Errorf("%w: need %d, budget %d", ErrPromptTooLarge, fixed, budget)
	}
	free := budget - fixed

	// Reserve part of the free budget for context so a long history cannot
	// starve retrieval entirely.
	reserve := int(float64(free) * a.contextShare)
	historyBudget := free - reserve

	// History: newest-first admission, oldest dropped first.
	historyBlocks := make([]string, 0, len(history))
	usedHistory := 0
	for i := len(history) - 1; i >= 0; i-- {
		block := renderTurn(history[i])
		if usedHistory+len(block) > historyBudget {
			break
		}
		historyBlocks = append(historyBlocks, block)
		usedHistory += len(block)
	}
	// Admission walked newest to oldest; rendering wants oldest to newest.
	reverse(historyBlocks)

	// Context: highest-score-first admission into the reserve plus whatever
	// the history did not use. Passages arrive sorted from the retriever,
	// but sort stably anyway so admission order never depends on the caller.
	ranked := make([]index.Passage, len(passages))
	copy(ranked, passages)
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Score > ranked[j].Score })

	contextBudget := free - usedHistory
	contextBlocks := make([]string, 0, len(ranked))
	included := make([]index.Passage, 0, len(ranked))
	usedContext := 0
	for _, p := range ranked {
		block := renderPassage(len(included)+1, p)
		if usedContext+len(block) > contextBudget {
			continue // a shorter lower-ranked passage may still fit
		}
		contextBlocks = append(contextBlocks, block)
		included = append(included, p)
		usedContext += len(block)
	}

	var b strings.Builder
	b.Grow(fixed + usedHistory + usedContext)
	b.WriteString(head)
	for _, block := range contextBlocks {
		b.WriteString(block)
	}
	for _, block := range historyBlocks {
		b.WriteString(block)
	}
	b.WriteString(tail)

	return &Prompt{Text: b.String(), Included: included}, nil
}

func renderPassage(n int, p index.Passage) string {
	return fmt.Sprintf("[%d] (%s) %s\n\n", n, p.Source, p.Text)
}

func renderTurn(t convo.Turn) string {
	return "User: " + t.Question + "\nAssistant: " + t.Answer + "\n\n"
}

func reverse(s []string) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}
