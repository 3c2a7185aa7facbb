package analytics

import (
	"sort"
	"strings"

	"github.com/Ranith1/LLM-Junior-Developer/internal/domain"
)

// minTokenLen is the shortest token that contributes to the frequency ranking.
const minTokenLen = 3

// stopwords are common English function words excluded from the ranking.
var stopwords = map[string]struct{}{}

func init() {
	for _, w := range []string{
		"the", "a", "an", "and", "or", "but", "if", "then", "else", "when", "at", "by", "for", "with", "without", "on", "in", "into", "out",
		"to", "from", "of", "is", "am", "are", "was", "were", "be", "been", "being", "it", "this", "that", "these", "those", "as", "so",
		"i", "you", "he", "she", "we", "they", "me", "him", "her", "us", "them", "my", "your", "his", "our", "their",
		"not", "no", "yes", "do", "does", "did", "done", "can", "could", "should", "would", "will", "just", "about", "than", "too", "very",
		"what", "which", "who", "whom", "where", "why", "how",
	} {
		stopwords[w] = struct{}{}
	}
}

// punctReplacer maps the fixed punctuation/symbol set to single spaces so
// that e.g. "quick-brown" splits into two tokens.
var punctReplacer = func() *strings.Replacer {
	const punct = "`~!@#$%^&*()-_=+[]{};:'\",.<>/?\\|"

	pairs := make([]string, 0, 2*len(punct))
	for _, c := range punct {
		pairs = append(pairs, string(c), " ")
	}
	return strings.NewReplacer(pairs...)
}()

// tokenize lowercases the text, maps the punctuation set to spaces, splits on
// whitespace, and drops short tokens, all-digit tokens, and stopwords.
func tokenize(text string) []string {
	normalized := punctReplacer.Replace(strings.ToLower(text))

	var tokens []string
	for _, tok := range strings.Fields(normalized) {
		if len(tok) < minTokenLen {
			continue
		}
		if allDigits(tok) {
			continue
		}
		if _, ok := stopwords[tok]; ok {
			continue
		}
		tokens = append(tokens, tok)
	}
	return tokens
}

func allDigits(s string) bool {
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return len(s) > 0
}

// wordCounter accumulates token frequencies across all messages of a report.
// One global counter per report; insertion order is tracked so that equal
// counts rank deterministically by first occurrence (the tie-break is
// otherwise an unspecified contract).
type wordCounter struct {
	counts map[string]int
	order  []string
}

func newWordCounter() *wordCounter {
	return &wordCounter{counts: make(map[string]int)}
}

// add tokenizes one message content and folds it into the counter.
func (c *wordCounter) add(text string) {
	for _, tok := range tokenize(text) {
		if _, seen := c.counts[tok]; !seen {
			c.order = append(c.order, tok)
		}
		c.counts[tok]++
	}
}

// top returns the n most frequent words, descending by count,
// ties broken by first occurrence.
func (c *wordCounter) top(n int) []domain.WordCount {
	ranked := make([]domain.WordCount, 0, len(c.order))
	for _, w := range c.order {
		ranked = append(ranked, domain.WordCount{Word: w, Count: c.counts[w]})
	}

	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Count > ranked[j].Count })

	if len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}
