package knowledge

import (
	"sort"
	"strings"

	"github.com/JAOCruz/Guru-Legal-AI-Bot/internal/nlp"
)

// ResultKind tells which collection a search result came from.
type ResultKind string

const (
	ResultTopic       ResultKind = "legal_topic"
	ResultInstitution ResultKind = "institution"
)

// Result is a scored search hit.
type Result struct {
	Kind        ResultKind
	Key         string
	Score       int
	Topic       *Topic
	Institution *Institution
}

// Search scores every topic and institution against the query words.
// A keyword containing (or contained in) a word scores 1; a word found in the
// title or name scores 2. Results are ordered by score, topics before
// institutions on ties.
func (b *Base) Search(query string) []Result {
	words := queryWords(query)
	if len(words) == 0 {
		return nil
	}

	var results []Result
	for i := range b.topics {
		t := &b.topics[i]
		if score := scoreEntry(words, t.Keywords, t.Title); score > 0 {
			results = append(results, Result{Kind: ResultTopic, Key: t.Key, Score: score, Topic: t})
		}
	}
	for i := range b.institutions {
		in := &b.institutions[i]
		if score := scoreEntry(words, in.Keywords, in.Name); score > 0 {
			results = append(results, Result{Kind: ResultInstitution, Key: in.Key, Score: score, Institution: in})
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	return results
}

func queryWords(query string) []string {
	var words []string
	for _, w := range strings.Fields(nlp.Normalize(query)) {
		if len([]rune(w)) > 2 {
			words = append(words, w)
		}
	}
	return words
}

func scoreEntry(words, keywords []string, title string) int {
	lowerTitle := strings.ToLower(title)
	score := 0
	for _, w := range words {
		for _, kw := range keywords {
			if strings.Contains(kw, w) || strings.Contains(w, kw) {
				score++
			}
		}
		if strings.Contains(lowerTitle, w) {
			score += 2
		}
	}
	return score
}
