package assistant

import (
	"sort"
	"strings"
	"unicode"

	"github.com/sahilm/fuzzy"

	"github.com/matteolinarello/Web-App-SIGEP/internal/services/referencedata"
)

// Grounding selects the reference data that goes into the prompt for one question
type Grounding interface {
	Select(data referencedata.Data, question string) referencedata.Data
	Name() string
}

// FullGrounding resends both datasets verbatim on every question
type FullGrounding struct{}

func (FullGrounding) Select(data referencedata.Data, _ string) referencedata.Data {
	return data
}

func (FullGrounding) Name() string {
	return "full"
}

// LexicalGrounding keeps the header row of each dataset plus at most Limit
// records that fuzzily match the words of the question. Matching tolerates
// typos and partial names ("Bindi" finds "BINDI S.p.A.").
type LexicalGrounding struct {
	Limit int
}

func (g LexicalGrounding) Name() string {
	return "lexical"
}

func (g LexicalGrounding) Select(data referencedata.Data, question string) referencedata.Data {
	terms := questionTerms(question)
	return referencedata.Data{
		Exhibitors: g.selectRecords(data.Exhibitors, terms),
		Events:     g.selectRecords(data.Events, terms),
	}
}

type recordScore struct {
	index   int
	matched int
	score   int
}

func (g LexicalGrounding) selectRecords(text string, terms []string) string {
	header, records, err := referencedata.ParseRecords(text)
	if err != nil || len(records) <= g.Limit {
		// unparseable text is resent verbatim rather than cut mid-record
		return text
	}

	lowered := make([]string, len(records))
	for i, record := range records {
		lowered[i] = strings.ToLower(record.Raw)
	}

	scores := make(map[int]*recordScore)
	for _, term := range terms {
		for _, match := range fuzzy.Find(term, lowered) {
			rs, ok := scores[match.Index]
			if !ok {
				rs = &recordScore{index: match.Index}
				scores[match.Index] = rs
			}
			rs.matched++
			rs.score += match.Score
		}
	}

	var selected []int
	if len(scores) == 0 {
		// nothing matched: give the model a sample to suggest alternatives from
		for i := 0; i < g.Limit; i++ {
			selected = append(selected, i)
		}
	} else {
		ranked := make([]*recordScore, 0, len(scores))
		for _, rs := range scores {
			ranked = append(ranked, rs)
		}
		sort.Slice(ranked, func(i, j int) bool {
			if ranked[i].matched != ranked[j].matched {
				return ranked[i].matched > ranked[j].matched
			}
			if ranked[i].score != ranked[j].score {
				return ranked[i].score > ranked[j].score
			}
			return ranked[i].index < ranked[j].index
		})
		if len(ranked) > g.Limit {
			ranked = ranked[:g.Limit]
		}
		for _, rs := range ranked {
			selected = append(selected, rs.index)
		}
		sort.Ints(selected)
	}

	out := make([]string, 0, len(selected)+1)
	out = append(out, header.Raw)
	for _, i := range selected {
		out = append(out, records[i].Raw)
	}
	return strings.Join(out, "\n")
}

var stopwords = map[string]struct{}{
	"che": {}, "chi": {}, "come": {}, "con": {}, "cosa": {}, "dei": {}, "del": {},
	"della": {}, "delle": {}, "dove": {}, "gli": {}, "per": {}, "quale": {},
	"quali": {}, "quando": {}, "sono": {}, "stand": {}, "trova": {}, "trovo": {},
	"una": {}, "uno": {}, "the": {}, "where": {}, "what": {}, "when": {},
}

// questionTerms lowercases the question and keeps distinct words of at least
// three letters that are not stopwords.
func questionTerms(question string) []string {
	fields := strings.FieldsFunc(strings.ToLower(question), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	seen := make(map[string]struct{}, len(fields))
	terms := make([]string, 0, len(fields))
	for _, field := range fields {
		if len([]rune(field)) < 3 {
			continue
		}
		if _, stop := stopwords[field]; stop {
			continue
		}
		if _, dup := seen[field]; dup {
			continue
		}
		seen[field] = struct{}{}
		terms = append(terms, field)
	}
	return terms
}
