package polyglot

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"
)

// TranslateInput holds the parameters of a translation action.
type TranslateInput struct {
	Text            string
	SourceLanguage  string
	TargetLanguages []string
}

// ListenInput holds the parameters of a speech synthesis action.
type ListenInput struct {
	Text         string
	Language     string
	SpeakingRate float64
}

// AnalyzeInput holds the parameters of an analysis action. The text comes
// from the client's current Selection.
type AnalyzeInput struct {
	InputLanguage  string
	OutputLanguage string
}

// Loading messages shown while a job is being submitted.
const (
	LoadingTranslation = "Translating..."
	LoadingSpeech      = "Processing..."
	LoadingAnalysis    = "Analyzing text..."
)

// Translate sanitizes and submits a translation and starts polling for it.
// The returned Job finishes once the translation is rendered or has failed.
func (c *Client) Translate(ctx context.Context, in TranslateInput) (*Job, error) {
	const kind = KindTranslation

	text, err := c.prepareText(kind, "text", in.Text)
	if err != nil {
		return nil, c.fail(kind, err)
	}
	source := NormalizeLanguage(in.SourceLanguage)
	if source == "" {
		return nil, c.fail(kind, &ValidationError{Field: "source language", Cause: errors.New("source language is required")})
	}
	targets, err := ResolveTargets(source, in.TargetLanguages)
	if err != nil {
		return nil, c.fail(kind, &ValidationError{Field: "target languages", Cause: err})
	}
	session, err := c.requireSession(kind)
	if err != nil {
		return nil, c.fail(kind, err)
	}

	key := CacheKey(kind, HashText(text), source, strings.Join(targets, ","))
	if job := c.fromCache(kind, key); job != nil {
		return job, nil
	}

	c.logger.Info("starting translation",
		zap.String("source", source),
		zap.Strings("targets", targets),
		zap.Int("length", len(text)))

	return c.submit(ctx, TranslationRequest{
		Text:            text,
		SourceLanguage:  source,
		TargetLanguages: targets,
		SessionID:       session,
	}, LoadingTranslation, key)
}

// Listen sanitizes and submits a speech synthesis job. On success the audio
// is handed to the configured Speaker.
func (c *Client) Listen(ctx context.Context, in ListenInput) (*Job, error) {
	const kind = KindSpeech

	text, err := c.prepareText(kind, "text", in.Text)
	if err != nil {
		return nil, c.fail(kind, err)
	}
	lang := NormalizeLanguage(in.Language)
	if lang == "" {
		return nil, c.fail(kind, &ValidationError{Field: "language", Cause: errors.New("language is required")})
	}
	session, err := c.requireSession(kind)
	if err != nil {
		return nil, c.fail(kind, err)
	}

	c.logger.Info("starting tts",
		zap.String("language", lang),
		zap.Float64("rate", in.SpeakingRate),
		zap.Int("length", len(text)))

	return c.submit(ctx, SpeechRequest{
		Text:         text,
		Language:     lang,
		SpeakingRate: in.SpeakingRate,
		SessionID:    session,
	}, LoadingSpeech, "")
}

// Analyze submits the current Selection for analysis. Both the selected text
// and its context must pass the sanitizer; warnings from either are
// confirmed together.
func (c *Client) Analyze(ctx context.Context, in AnalyzeInput) (*Job, error) {
	const kind = KindAnalysis

	if c.isClosed() {
		return nil, ErrClientClosed
	}
	sel := c.Selection()
	if sel.Empty() {
		return nil, c.fail(kind, &ValidationError{Field: "selection", Cause: ErrNoSelection})
	}
	session, err := c.requireSession(kind)
	if err != nil {
		return nil, c.fail(kind, err)
	}

	selected := Sanitize(sel.Text)
	if !selected.IsValid {
		return nil, c.fail(kind, &ValidationError{Field: "selected text", Warnings: selected.Warnings})
	}
	surrounding := Sanitize(sel.Context)
	if !surrounding.IsValid {
		return nil, c.fail(kind, &ValidationError{Field: "context text", Warnings: surrounding.Warnings})
	}

	var warnings []string
	warnings = append(warnings, selected.Warnings...)
	for _, w := range surrounding.Warnings {
		warnings = append(warnings, "Context: "+w)
	}
	if err := c.confirm(kind, warnings); err != nil {
		return nil, c.fail(kind, err)
	}

	inputLang := NormalizeLanguage(in.InputLanguage)
	outputLang := NormalizeLanguage(in.OutputLanguage)
	if inputLang == "" || outputLang == "" {
		return nil, c.fail(kind, &ValidationError{Field: "language", Cause: errors.New("input and output languages are required")})
	}

	clean := Selection{Text: selected.SanitizedText, Context: surrounding.SanitizedText}
	key := AnalysisCacheKey(clean, inputLang, outputLang)
	if job := c.fromCache(kind, key); job != nil {
		return job, nil
	}

	c.logger.Info("starting analysis",
		zap.String("input_language", inputLang),
		zap.String("output_language", outputLang),
		zap.String("selection", truncate(clean.Text, 50)))

	return c.submit(ctx, AnalysisRequest{
		ContextText:    clean.Context,
		TextToAnalyze:  clean.Text,
		InputLanguage:  inputLang,
		OutputLanguage: outputLang,
		SessionID:      session,
	}, LoadingAnalysis, key)
}

// prepareText trims, sanitizes and confirms one free-text input and returns
// the text to submit.
func (c *Client) prepareText(kind JobKind, field, text string) (string, error) {
	if c.isClosed() {
		return "", ErrClientClosed
	}
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return "", &ValidationError{Field: field, Cause: ErrEmptyInput}
	}

	v := Sanitize(trimmed)
	if !v.IsValid {
		return "", &ValidationError{Field: field, Warnings: v.Warnings}
	}
	if err := c.confirm(kind, v.Warnings); err != nil {
		return "", err
	}
	return v.SanitizedText, nil
}

func (c *Client) confirm(kind JobKind, warnings []string) error {
	if len(warnings) == 0 {
		return nil
	}
	if !c.confirmer.Confirm(kind, warnings) {
		c.logger.Info("submission cancelled at confirmation", zap.String("kind", kind.String()), zap.Strings("warnings", warnings))
		return ErrNotConfirmed
	}
	return nil
}

// submit posts req and, when the backend accepts it, starts polling. The
// kind's control is busy for the duration of the submission only.
func (c *Client) submit(ctx context.Context, req JobRequest, loading, cacheKey string) (*Job, error) {
	kind := req.Kind()

	c.view.SetBusy(kind, true)
	defer c.view.SetBusy(kind, false)
	c.view.ShowLoading(kind, loading)

	resp, err := c.backend.Submit(ctx, req)
	if err != nil {
		c.logger.Error("submission failed", zap.String("kind", kind.String()), zap.Error(err))
		return nil, c.fail(kind, &SubmissionError{Kind: kind, Message: "network error", Cause: err})
	}

	switch {
	case resp.Error != "":
		c.logger.Warn("submission rejected", zap.String("kind", kind.String()), zap.String("error", resp.Error))
		return nil, c.fail(kind, &SubmissionError{Kind: kind, Message: resp.Error})

	case resp.RequestID != "":
		c.logger.Info("starting polling", zap.String("kind", kind.String()), zap.String("request_id", resp.RequestID))
		job, err := c.start(kind, resp.RequestID, cacheKey)
		if err != nil {
			return nil, c.fail(kind, err)
		}
		return job, nil

	default:
		return nil, c.fail(kind, &SubmissionError{Kind: kind, Message: "unexpected response format"})
	}
}
