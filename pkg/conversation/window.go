package conversation

// Window shapes the outbound history. It never touches the conversation
// itself, only the slice handed to it.
type Window interface {
	Apply(entries []HistoryEntry) []HistoryEntry
}

// Unbounded sends the whole history.
type Unbounded struct{}

func (Unbounded) Apply(entries []HistoryEntry) []HistoryEntry { return entries }

// LastN keeps the trailing Max entries. Max <= 0 keeps everything.
type LastN struct {
	Max int
}

func (w LastN) Apply(entries []HistoryEntry) []HistoryEntry {
	if w.Max <= 0 || len(entries) <= w.Max {
		return entries
	}
	return entries[len(entries)-w.Max:]
}

// TokenCounter returns the token length of a piece of text.
type TokenCounter func(text string) int

// TokenBudgetWindow keeps the longest trailing run of entries whose summed
// token counts fit into Budget. Budget <= 0 or a nil Count keeps everything.
type TokenBudgetWindow struct {
	Budget int
	Count  TokenCounter
}

func (w TokenBudgetWindow) Apply(entries []HistoryEntry) []HistoryEntry {
	if w.Budget <= 0 || w.Count == nil {
		return entries
	}
	used := 0
	start := len(entries)
	for i := len(entries) - 1; i >= 0; i-- {
		n := w.Count(entries[i].Content)
		if used+n > w.Budget {
			break
		}
		used += n
		start = i
	}
	return entries[start:]
}
