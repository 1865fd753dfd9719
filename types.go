package polyglot

import (
	"encoding/json"
	"fmt"
)

// JobKind identifies one of the asynchronous job families served by the backend.
type JobKind string

const (
	// KindTranslation translates text into one or more target languages.
	KindTranslation JobKind = "translate"
	// KindSpeech synthesizes speech for text (the "listen" action).
	KindSpeech JobKind = "tts"
	// KindAnalysis analyzes a selected fragment within its surrounding text.
	KindAnalysis JobKind = "analyze"
)

// String returns a human-readable name for the kind.
func (k JobKind) String() string {
	switch k {
	case KindTranslation:
		return "translation"
	case KindSpeech:
		return "speech"
	case KindAnalysis:
		return "analysis"
	default:
		return string(k)
	}
}

// ValidationResult is the outcome of sanitizing a piece of user text.
type ValidationResult struct {
	IsValid       bool     // False only when nothing but whitespace survives sanitization
	Warnings      []string // Human-readable advisories, in detection order
	SanitizedText string   // Text to submit in place of the original
}

// HasWarnings reports whether the result needs user confirmation.
func (v ValidationResult) HasWarnings() bool {
	return len(v.Warnings) > 0
}

// JobRequest is a submission payload for one job kind.
type JobRequest interface {
	Kind() JobKind
}

// TranslationRequest is the body of POST /api/translate.
type TranslationRequest struct {
	Text            string   `json:"text"`
	SourceLanguage  string   `json:"sourceLanguage"`
	TargetLanguages []string `json:"targetLanguages"`
	SessionID       string   `json:"sessionId"`
}

// Kind implements JobRequest.
func (TranslationRequest) Kind() JobKind { return KindTranslation }

// SpeechRequest is the body of POST /api/tts.
type SpeechRequest struct {
	Text         string  `json:"text"`
	Language     string  `json:"language"`
	SpeakingRate float64 `json:"speakingRate"`
	SessionID    string  `json:"sessionId"`
}

// Kind implements JobRequest.
func (SpeechRequest) Kind() JobKind { return KindSpeech }

// AnalysisRequest is the body of POST /api/analyze.
type AnalysisRequest struct {
	ContextText    string `json:"contextText"`
	TextToAnalyze  string `json:"textToAnalyze"`
	InputLanguage  string `json:"inputLanguage"`
	OutputLanguage string `json:"outputLanguage"`
	SessionID      string `json:"sessionId"`
}

// Kind implements JobRequest.
func (AnalysisRequest) Kind() JobKind { return KindAnalysis }

// SubmitResponse is the body returned by every submission endpoint.
type SubmitResponse struct {
	RequestID string `json:"requestId,omitempty"`
	Error     string `json:"error,omitempty"`
}

// Translation is one (language, text) pair of a translation result.
// On the wire it is a two-element JSON array.
type Translation struct {
	Language string
	Text     string
}

// UnmarshalJSON decodes the ["lang", "text"] tuple form.
func (t *Translation) UnmarshalJSON(data []byte) error {
	var pair []string
	if err := json.Unmarshal(data, &pair); err != nil {
		return err
	}
	if len(pair) != 2 {
		return fmt.Errorf("translation tuple has %d elements, want 2", len(pair))
	}
	t.Language, t.Text = pair[0], pair[1]
	return nil
}

// MarshalJSON encodes the pair back into tuple form.
func (t Translation) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]string{t.Language, t.Text})
}

// StatusNotFound is the result status reported while a job is still running.
const StatusNotFound = "not_found"

// ResultResponse is the body returned by every result endpoint. Which payload
// field is populated depends on the job kind.
type ResultResponse struct {
	Success      *bool         `json:"success,omitempty"`
	Error        string        `json:"error,omitempty"`
	Status       string        `json:"status,omitempty"`
	Translations []Translation `json:"translations,omitempty"`
	AudioURL     string        `json:"audioUrl,omitempty"`
	AnalysisHTML string        `json:"analysisHtml,omitempty"`
}

// SessionResponse is the body returned by POST /api/session/start.
type SessionResponse struct {
	Success   bool   `json:"success"`
	SessionID string `json:"sessionId"`
	Error     string `json:"error,omitempty"`
}

// Selection is the text the user highlighted and the full input around it.
type Selection struct {
	Text    string // Selected fragment, trimmed
	Context string // Entire input at the moment of selection
}

// Empty reports whether nothing is selected.
func (s Selection) Empty() bool {
	return s.Text == ""
}

// Outcome is the terminal result of polling one job.
type Outcome struct {
	Kind         JobKind
	RequestID    string
	State        State
	Attempts     int           // Result endpoint calls made
	Translations []Translation // KindTranslation
	AudioURL     string        // KindSpeech
	AnalysisHTML string        // KindAnalysis
	Err          error         // Set for every state but StateSuccess
	Cached       bool          // Served from the result cache without polling
}

// OK reports whether the job completed successfully.
func (o Outcome) OK() bool {
	return o.State == StateSuccess
}
