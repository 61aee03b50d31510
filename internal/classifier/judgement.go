package classifier

import "context"

// Failure classifies why an analysis fell back to the safe judgement.
type Failure string

const (
	FailureNone      Failure = ""
	FailureAuth      Failure = "auth"
	FailureTimeout   Failure = "timeout"
	FailureTransport Failure = "transport"
	FailureUpstream  Failure = "upstream"
	FailureParse     Failure = "parse"
)

// Judgement is the normalized outcome of analysing one citizen message.
type Judgement struct {
	IsValidComplaint bool    `json:"isValidComplaint"`
	Category         string  `json:"category"`
	HasLocation      bool    `json:"hasLocation"`
	NeedsLocation    bool    `json:"needsLocation"`
	CreateTicket     bool    `json:"createTicket"`
	Confidence       float64 `json:"confidence"`
	Translation      string  `json:"translation"`
	Reason           string  `json:"reason"`
	Response         string  `json:"response"`
	OriginalMessage  string  `json:"originalMessage"`
	Username         string  `json:"username,omitempty"`
	Error            string  `json:"error,omitempty"`
	Failure          Failure `json:"-"`
}

// Classifier analyses a message. Implementations never fail; problems are folded
// into a fallback Judgement.
type Classifier interface {
	Analyze(ctx context.Context, message, username string) Judgement
}

const (
	replyDefault   = "உங்கள் செய்தி பெறப்பட்டது. பகுப்பாய்வு செய்யப்படுகிறது."
	replyAuthError = "மன்னிக்கவும், சேவையில் பிரச்சனை. நிர்வாகியை தொடர்பு கொள்ளவும்."
	replyTechError = "மன்னிக்கவும், தொழில்நுட்ப பிரச்சனை ஏற்பட்டுள்ளது. மீண்டும் முயற்சிக்கவும்."

	fallbackConfidence = 0.1
)

// Fallback builds the safe no-ticket judgement for a failure class.
func Fallback(message, username string, failure Failure, cause string) Judgement {
	j := Judgement{
		IsValidComplaint: false,
		Category:         "General",
		CreateTicket:     false,
		Confidence:       fallbackConfidence,
		Translation:      message,
		OriginalMessage:  message,
		Username:         username,
		Failure:          failure,
	}
	if failure == FailureAuth {
		j.Reason = "API authentication failed"
		j.Response = replyAuthError
		j.Error = "API Key Invalid"
		return j
	}
	j.Reason = "Technical error occurred during analysis"
	j.Response = replyTechError
	j.Error = cause
	return j
}
