package feed

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/okian/bankroll/internal/domain/model"
)

// Signal field markers and defaults.
const (
	signalMarker = "🎯 PARTIDA:"
	titlePrefix  = "--- DICAS E ANÁLISE"

	markerProfile  = "PERFIL ENCONTRADO:"
	markerAnalysis = "RESUMO DA ANÁLISE:"
	markerWarning  = "PONTO DE ATENÇÃO:"
	markerMetrics  = "MÉTRICAS CHAVE:"

	DefaultSignalTitle   = "Dicas da Semana"
	DefaultProfile       = "Não especificado"
	DefaultAnalysis      = "Análise não disponível."
	DefaultWarning       = "Nenhum ponto de atenção específico."
	DefaultBetSuggestion = "Mercado de Menos de 3.5 Gols."
)

var (
	signalSplit  = regexp.MustCompile(regexp.QuoteMeta(signalMarker))
	leadingFloat = regexp.MustCompile(`^[-+]?(\d+\.?\d*|\.\d+)([eE][-+]?\d+)?`)
)

type signalDraft struct {
	sig       model.Signal
	inMetrics bool
}

var signalRules = []lineRule[signalDraft]{
	{
		name:  "profile",
		match: contains[signalDraft](markerProfile),
		apply: func(d *signalDraft, line string) {
			d.sig.Profile = strings.ReplaceAll(after(line, markerProfile), `"`, "")
		},
	},
	{
		name:  "analysis",
		match: contains[signalDraft](markerAnalysis),
		apply: func(d *signalDraft, line string) {
			d.sig.Analysis += after(line, markerAnalysis) + " "
		},
	},
	{
		name:  "warning",
		match: contains[signalDraft](markerWarning),
		apply: func(d *signalDraft, line string) {
			d.sig.Warning += after(line, markerWarning) + " "
		},
	},
	{
		name:  "metrics",
		match: contains[signalDraft](markerMetrics),
		apply: func(d *signalDraft, _ string) {
			d.sig.Metrics = map[string]float64{}
			d.inMetrics = true
		},
	},
	{
		name: "metric",
		match: func(d *signalDraft, line string) bool {
			return d.inMetrics && strings.HasPrefix(line, "-")
		},
		apply: func(d *signalDraft, line string) {
			name, value, ok := strings.Cut(strings.TrimPrefix(line, "-"), ":")
			if !ok {
				return
			}
			if v, ok := parseLeadingFloat(value); ok {
				d.sig.Metrics[strings.TrimSpace(name)] = v
			}
		},
	},
	{
		name: "continuation",
		match: func(_ *signalDraft, line string) bool {
			return !isDecoration(line)
		},
		apply: func(d *signalDraft, line string) {
			switch {
			case d.sig.Warning != "":
				d.sig.Warning += line + " "
			case d.sig.Analysis != "":
				d.sig.Analysis += line + " "
			}
		},
	},
}

// ParseSignals parses a signals feed. The first freeCount signals are
// flagged as free.
func ParseSignals(raw string, freeCount int) model.SignalSheet {
	sheet := model.SignalSheet{Title: signalTitle(raw)}
	blocks := splitBlocks(raw, signalSplit)
	sheet.Signals = make([]model.Signal, 0, len(blocks))

	for _, b := range blocks {
		if len(b.lines) == 0 {
			continue
		}
		d := signalDraft{sig: model.Signal{Match: b.lines[0]}}
		for _, line := range b.lines[1:] {
			classify(signalRules, &d, line)
		}
		d.sig.IsFree = len(sheet.Signals) < freeCount
		sheet.Signals = append(sheet.Signals, withSignalDefaults(d.sig))
	}
	return sheet
}

func withSignalDefaults(s model.Signal) model.Signal {
	s.Analysis = strings.TrimSpace(s.Analysis)
	s.Warning = strings.TrimSpace(s.Warning)
	if s.Profile == "" {
		s.Profile = DefaultProfile
	}
	if s.Analysis == "" {
		s.Analysis = DefaultAnalysis
	}
	if s.Warning == "" {
		s.Warning = DefaultWarning
	}
	if s.Metrics == nil {
		s.Metrics = map[string]float64{}
	}
	s.BetSuggestion = DefaultBetSuggestion
	return s
}

func signalTitle(raw string) string {
	for _, line := range splitLines(raw) {
		if strings.HasPrefix(line, titlePrefix) {
			if t := strings.Trim(line, "- "); t != "" {
				return t
			}
		}
	}
	return DefaultSignalTitle
}

// parseLeadingFloat reads the number at the start of s, ignoring any
// trailing unit text ("1.45 gols").
func parseLeadingFloat(s string) (float64, bool) {
	m := leadingFloat.FindString(strings.TrimSpace(s))
	if m == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
