package generic

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/baalimago/chaperone/internal/models"
	"github.com/baalimago/go_away_boilerplate/pkg/ancli"
	"github.com/baalimago/go_away_boilerplate/pkg/debug"
	"github.com/baalimago/go_away_boilerplate/pkg/misc"
)

var dataPrefix = []byte("data: ")

// Generate sends the messages as one chat completion request and collects the
// streamed reply into a single candidate generation.
func (s *StreamCompleter) Generate(ctx context.Context, msgs []models.Message) (string, error) {
	s.limiter.WaitIfNeeded(ctx)
	req, err := s.createRequest(ctx, msgs)
	if err != nil {
		return "", fmt.Errorf("%w: failed to create request: %w", models.ErrProvider, err)
	}
	res, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: failed to execute request: %w", models.ErrProvider, err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(res.Body)
		return "", fmt.Errorf("%w: unexpected status code: %v, body: %v", models.ErrProvider, res.Status, string(body))
	}
	if err := s.limiter.UpdateFromHeaders(res.Header); err != nil && s.debug {
		ancli.PrintWarn(fmt.Sprintf("failed to update rate limits: %v\n", err))
	}
	raw, err := s.collectStream(ctx, res.Body)
	if err != nil {
		return raw, fmt.Errorf("%w: failed to read stream: %w", models.ErrProvider, err)
	}
	return raw, nil
}

func (s *StreamCompleter) createRequest(ctx context.Context, msgs []models.Message) (*http.Request, error) {
	reqData := req{
		Model:            s.Model,
		FrequencyPenalty: s.FrequencyPenalty,
		MaxTokens:        s.MaxTokens,
		PresencePenalty:  s.PresencePenalty,
		Temperature:      s.Temperature,
		TopP:             s.TopP,
		ResponseFormat:   responseFormat{Type: "text"},
		Messages:         msgs,
		Stream:           true,
		// The sanitizers only accept one candidate
		N: 1,
	}
	if s.debug {
		ancli.PrintOK(fmt.Sprintf("generic streamcompleter request: %v\n", debug.IndentedJsonFmt(reqData)))
	}
	jsonData, err := json.Marshal(reqData)
	if err != nil {
		return nil, fmt.Errorf("failed to encode JSON: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", s.URL, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %v", s.apiKey))
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Connection", "keep-alive")
	return req, nil
}

func (s *StreamCompleter) collectStream(ctx context.Context, body io.Reader) (string, error) {
	var sb strings.Builder
	br := bufio.NewReader(body)
	for {
		if ctx.Err() != nil {
			return sb.String(), ctx.Err()
		}
		token, readErr := br.ReadBytes('\n')
		if len(token) > 0 {
			switch ev := s.handleStreamChunk(token).(type) {
			case string:
				sb.WriteString(ev)
			case stopEvent:
				return sb.String(), nil
			case error:
				return sb.String(), ev
			}
		}
		if readErr != nil {
			if errors.Is(readErr, io.EOF) {
				// Some servers close the stream without a [DONE] marker
				return sb.String(), nil
			}
			return sb.String(), fmt.Errorf("failed to read line: %w", readErr)
		}
	}
}

func (s *StreamCompleter) handleStreamChunk(token []byte) completionEvent {
	token = bytes.TrimSpace(token)
	if len(token) == 0 {
		return noopEvent{}
	}
	token = bytes.TrimPrefix(token, dataPrefix)
	token = bytes.TrimSpace(token)
	if string(token) == "[DONE]" {
		return stopEvent{}
	}

	if s.debug {
		ancli.PrintOK(fmt.Sprintf("token: %+v\n", string(token)))
	}
	var chunk chatCompletionChunk
	err := json.Unmarshal(token, &chunk)
	if err != nil {
		if misc.Truthy(os.Getenv("DEBUG")) {
			// Keep-alive comments and similar are expected
			ancli.PrintWarn(fmt.Sprintf("failed to unmarshal token: %v, err: %v\n", string(token), err))
		}
		return noopEvent{}
	}
	if len(chunk.Choices) == 0 {
		return noopEvent{}
	}
	if len(chunk.Choices) > 1 {
		return fmt.Errorf("received %v choices in one chunk, expected exactly one", len(chunk.Choices))
	}
	switch c := chunk.Choices[0].Delta.Content.(type) {
	case string:
		return c
	case nil:
		return noopEvent{}
	default:
		return fmt.Errorf("unexpected content type in delta: %T", c)
	}
}
