package model

// Signal is one match analysis from the signals feed.
type Signal struct {
	Match         string             `json:"match"`
	Profile       string             `json:"profile"`
	Analysis      string             `json:"analysis"`
	Warning       string             `json:"warning"`
	Metrics       map[string]float64 `json:"metrics"`
	BetSuggestion string             `json:"betSuggestion"`
	IsFree        bool               `json:"isFree"`
}

// SignalSheet is a parsed signals document.
type SignalSheet struct {
	Title   string   `json:"title"`
	Signals []Signal `json:"signals"`
}
