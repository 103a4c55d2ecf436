package feed

import (
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/okian/bankroll/internal/domain/model"
)

var (
	resultMarker = regexp.MustCompile(`\[R\d+\]`)
	resultLine   = regexp.MustCompile(`(?i)^RESULTADO:\s*(Green|Red)\b`)
	matchHeader  = regexp.MustCompile(`^(.+?)\s+(\d+\s*[–-]\s*\d+)\s+(.+)$`)

	// Report summary lines that can trail the last block.
	summaryNoise = []*regexp.Regexp{
		regexp.MustCompile(`^RODADAS ANALISADAS:`),
		regexp.MustCompile(`^Total de (Entradas|Greens|Reds)`),
		regexp.MustCompile(`^Assertividade:`),
	}
)

// Report describes one results-feed parse.
type Report struct {
	Records []model.OutcomeRecord
	Blocks  int // blocks found
	Dropped int // blocks without a result marker or a date
}

// resultDraft accumulates the fields of one block.
type resultDraft struct {
	participants string
	score        string
	profile      string
	outcome      model.Outcome
	hasOutcome   bool
}

var resultRules = []lineRule[resultDraft]{
	{
		name: "result",
		match: func(_ *resultDraft, line string) bool {
			return resultLine.MatchString(line)
		},
		apply: func(d *resultDraft, line string) {
			m := resultLine.FindStringSubmatch(line)
			d.outcome = model.OutcomeOf(strings.EqualFold(m[1], "green"))
			d.hasOutcome = true
		},
	},
	{
		name:  "profile",
		match: hasPrefix[resultDraft]("Perfil:"),
		apply: func(d *resultDraft, line string) {
			v := strings.TrimPrefix(line, "Perfil:")
			if i := strings.Index(v, "|"); i >= 0 {
				v = v[:i]
			}
			d.profile = strings.TrimSpace(v)
		},
	},
}

// ParseResults turns a results feed into outcome records sorted ascending by
// date. Input order breaks ties.
func ParseResults(raw string) []model.OutcomeRecord {
	return ParseResultsReport(raw).Records
}

// ParseResultsReport is ParseResults with block counts.
func ParseResultsReport(raw string) Report {
	blocks := splitBlocks(raw, resultMarker)
	rep := Report{Records: make([]model.OutcomeRecord, 0, len(blocks)), Blocks: len(blocks)}

	for _, b := range blocks {
		rec, ok := parseResultBlock(b)
		if !ok {
			rep.Dropped++
			continue
		}
		rep.Records = append(rep.Records, rec)
	}

	sort.SliceStable(rep.Records, func(i, j int) bool {
		return rep.Records[i].OccurredAt.Before(rep.Records[j].OccurredAt)
	})
	return rep
}

func parseResultBlock(b block) (model.OutcomeRecord, bool) {
	var d resultDraft
	var dates []time.Time

	header := true
	for _, line := range b.lines {
		if isSummaryNoise(line) {
			continue
		}
		// Separators can carry the round date.
		dates = append(dates, DateTokens(line)...)
		if isDecoration(line) {
			continue
		}
		if header {
			header = false
			if m := matchHeader.FindStringSubmatch(line); m != nil {
				d.participants = strings.TrimSpace(m[1]) + " vs " + strings.TrimSpace(m[3])
				d.score = strings.Join(strings.Fields(m[2]), "")
				continue
			}
		}
		classify(resultRules, &d, line)
	}

	when, ok := LatestDate(dates)
	if !ok || !d.hasOutcome {
		return model.OutcomeRecord{}, false
	}
	return model.OutcomeRecord{
		SequenceIndex: b.index,
		OccurredAt:    when,
		Participants:  d.participants,
		ScoreLabel:    d.score,
		Profile:       d.profile,
		Outcome:       d.outcome,
	}, true
}

func isSummaryNoise(line string) bool {
	for _, re := range summaryNoise {
		if re.MatchString(line) {
			return true
		}
	}
	return false
}
