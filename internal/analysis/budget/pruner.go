package budget

import "github.com/manu-sreesanth/echojournal/internal/model/chat"

// EstimateTokens approximates the token cost of a piece of text as
// ceil(len/4). A fixed approximation, not a real tokenizer, so pruning
// boundaries stay stable across model changes.
func EstimateTokens(text string) int {
	if text == "" {
		return 0
	}
	return (len(text) + 3) / 4
}

// Prune trims an ordered conversation history (oldest first) to fit within
// maxTokens. It walks the history newest to oldest, keeping turns while the
// accumulated estimate stays within budget, and returns the kept turns back
// in oldest-first order. The result is always a contiguous suffix of the
// input. If even the newest turn alone exceeds the budget, the result is
// empty and callers must tolerate sending no history.
func Prune(history []chat.Turn, maxTokens int) []chat.Turn {
	if len(history) == 0 || maxTokens <= 0 {
		return nil
	}

	used := 0
	start := len(history)
	for i := len(history) - 1; i >= 0; i-- {
		cost := EstimateTokens(history[i].Content)
		if used+cost > maxTokens {
			break
		}
		used += cost
		start = i
	}

	if start == len(history) {
		return nil
	}
	out := make([]chat.Turn, len(history)-start)
	copy(out, history[start:])
	return out
}
