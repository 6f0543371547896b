// Package summarizer shortens place descriptions for display. Sentences are
// ranked by stopword-filtered term frequency, with a bonus for terms that
// appear in the user's query, and the winners are kept in original order.
package summarizer

import (
	"math"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"
)

// Excerpter picks the most representative sentences of a description.
type Excerpter struct {
	maxSentences int
	// maxRunes caps the excerpt length; zero disables the cap.
	maxRunes     int
	tokenPattern *regexp.Regexp
	sentencePat  *regexp.Regexp
	stopwords    map[string]struct{}
}

// NewExcerpter creates an Excerpter keeping at most maxSentences sentences.
func NewExcerpter(maxSentences, maxRunes int) *Excerpter {
	if maxSentences <= 0 {
		maxSentences = 2
	}
	return &Excerpter{
		maxSentences: maxSentences,
		maxRunes:     maxRunes,
		tokenPattern: regexp.MustCompile(`\p{L}+(?:['’]\p{L}+)*`),
		sentencePat:  regexp.MustCompile(`(?m)(?U)([^.!?]+[.!?])`),
		stopwords:    defaultStopwords(),
	}
}

// Excerpt returns a short excerpt of text. Sentences sharing words with
// query rank higher; an empty query ranks purely by term frequency.
func (e *Excerpter) Excerpt(text, query string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}
	locs := e.sentencePat.FindAllStringIndex(text, -1)
	sentences := make([]string, 0, len(locs)+1)
	end := 0
	for _, l := range locs {
		sentences = append(sentences, text[l[0]:l[1]])
		end = l[1]
	}
	// trailing text without terminal punctuation is still a sentence
	if tail := strings.TrimSpace(text[end:]); tail != "" {
		sentences = append(sentences, tail)
	}
	if len(sentences) <= e.maxSentences {
		return e.clip(joinTrimmed(sentences, allIndexes(len(sentences))))
	}

	freq := map[string]float64{}
	for _, sent := range sentences {
		for _, tok := range e.tokens(sent) {
			if _, ok := e.stopwords[tok]; ok {
				continue
			}
			freq[tok]++
		}
	}
	maxF := 0.0
	for _, v := range freq {
		maxF = math.Max(maxF, v)
	}
	if maxF > 0 {
		for k, v := range freq {
			freq[k] = v / maxF
		}
	}
	queryTerms := map[string]struct{}{}
	for _, tok := range e.tokens(query) {
		if _, ok := e.stopwords[tok]; !ok {
			queryTerms[tok] = struct{}{}
		}
	}

	type scored struct {
		idx   int
		score float64
	}
	scores := make([]scored, len(sentences))
	for i, sent := range sentences {
		toks := e.tokens(sent)
		s := 0.0
		for _, tok := range toks {
			s += freq[tok]
			if _, ok := queryTerms[tok]; ok {
				s++
			}
		}
		if l := float64(len(toks)); l > 0 {
			s /= math.Sqrt(l)
		}
		scores[i] = scored{i, s}
	}
	sort.SliceStable(scores, func(i, j int) bool { return scores[i].score > scores[j].score })

	selected := make([]int, e.maxSentences)
	for i := range selected {
		selected[i] = scores[i].idx
	}
	sort.Ints(selected)
	return e.clip(joinTrimmed(sentences, selected))
}

func (e *Excerpter) clip(s string) string {
	if e.maxRunes <= 0 || utf8.RuneCountInString(s) <= e.maxRunes {
		return s
	}
	r := []rune(s)[:e.maxRunes]
	cut := strings.TrimRight(string(r), " ,;:")
	if i := strings.LastIndexByte(cut, ' '); i > len(cut)/2 {
		cut = cut[:i]
	}
	return cut + "…"
}

func (e *Excerpter) tokens(text string) []string {
	return e.tokenPattern.FindAllString(strings.ToLower(text), -1)
}

func joinTrimmed(sentences []string, idx []int) string {
	out := make([]string, 0, len(idx))
	for _, i := range idx {
		out = append(out, strings.TrimSpace(sentences[i]))
	}
	return strings.Join(out, " ")
}

func allIndexes(n int) []int {
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	return idx
}

func defaultStopwords() map[string]struct{} {
	words := []string{
		"a", "an", "the", "and", "or", "but", "if", "then", "else", "for", "to", "of", "in", "on", "at", "by", "with", "as", "is", "are", "was", "were", "be", "been", "being", "it", "its", "this", "that", "these", "those", "from", "up", "down", "over", "under", "again", "further", "than", "so", "such", "into", "about", "between", "through", "during", "before", "after", "above", "below", "out", "off", "own", "same", "too", "very", "can", "will", "just", "should", "now", "also", "which", "where", "who",
	}
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}
