package classifier

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/civic-desk/complaint-service/internal/config"
)

type generateRequest struct {
	Contents         []content        `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generationConfig struct {
	Temperature     float64 `json:"temperature"`
	TopK            int     `json:"topK"`
	TopP            float64 `json:"topP"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

// Client calls the Gemini generateContent endpoint.
type Client struct {
	http   *resty.Client
	cfg    config.ClassifierConfig
	logger *zap.Logger
}

// New builds a Client from configuration.
func New(cfg config.ClassifierConfig, logger *zap.Logger) *Client {
	if cfg.APIKey == "" {
		logger.Warn("classifier API key not configured; every analysis will fall back")
	}
	httpClient := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(cfg.Timeout()).
		SetHeader("Content-Type", "application/json")

	return &Client{http: httpClient, cfg: cfg, logger: logger}
}

// Analyze classifies message. It never returns an error; see Fallback.
func (c *Client) Analyze(ctx context.Context, message, username string) Judgement {
	if c.cfg.APIKey == "" {
		return Fallback(message, username, FailureAuth, "missing api key")
	}

	text, failure, err := c.generate(ctx, BuildPrompt(message))
	if err != nil {
		c.logger.Warn("classifier request failed",
			zap.String("failure", string(failure)),
			zap.Error(err),
		)
		return Fallback(message, username, failure, err.Error())
	}

	judgement, err := parseJudgement(text, message, username)
	if err != nil {
		c.logger.Warn("classifier reply unparseable",
			zap.String("failure", string(FailureParse)),
			zap.Error(err),
		)
		return Fallback(message, username, FailureParse, err.Error())
	}

	c.logger.Debug("message analysed",
		zap.String("category", judgement.Category),
		zap.Bool("create_ticket", judgement.CreateTicket),
		zap.Float64("confidence", judgement.Confidence),
	)
	return judgement
}

func (c *Client) generate(ctx context.Context, prompt string) (string, Failure, error) {
	body := generateRequest{
		Contents: []content{{Parts: []part{{Text: prompt}}}},
		GenerationConfig: generationConfig{
			Temperature:     c.cfg.Temperature,
			TopK:            40,
			TopP:            0.95,
			MaxOutputTokens: c.cfg.MaxOutputTokens,
		},
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParam("model", c.cfg.Model).
		SetQueryParam("key", c.cfg.APIKey).
		SetBody(body).
		Post("/models/{model}:generateContent")
	if err != nil {
		return "", transportFailure(err), err
	}

	switch status := resp.StatusCode(); {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return "", FailureAuth, fmt.Errorf("upstream rejected credentials: status %d", status)
	case status < 200 || status >= 300:
		return "", FailureUpstream, fmt.Errorf("upstream status %d", status)
	}

	var out generateResponse
	if err := json.Unmarshal(resp.Body(), &out); err != nil {
		return "", FailureParse, fmt.Errorf("decode model reply: %w", err)
	}
	if len(out.Candidates) == 0 || len(out.Candidates[0].Content.Parts) == 0 {
		return "", FailureParse, errors.New("no candidates in model reply")
	}
	return strings.TrimSpace(out.Candidates[0].Content.Parts[0].Text), FailureNone, nil
}

func transportFailure(err error) Failure {
	if errors.Is(err, context.DeadlineExceeded) {
		return FailureTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return FailureTimeout
	}
	return FailureTransport
}
