package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ollama/ollama/api"
	"github.com/sirupsen/logrus"
)

const (
	DefaultBaseURL = "http://localhost:11434"
	DefaultModel   = "phi3"

	chatTimeout = 60 * time.Second
)

// Ollama talks to a local Ollama server via its typed API client.
type Ollama struct {
	client  *api.Client
	model   string
	timeout time.Duration
	log     *logrus.Logger
}

var _ Provider = (*Ollama)(nil)

func NewOllama(baseURL, model string, log *logrus.Logger) (*Ollama, error) {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if model == "" {
		model = DefaultModel
	}
	if log == nil {
		log = logrus.New()
	}

	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse ollama base url: %w", err)
	}

	return &Ollama{
		client:  api.NewClient(u, http.DefaultClient),
		model:   model,
		timeout: chatTimeout,
		log:     log,
	}, nil
}

func (o *Ollama) Model() string { return o.model }

func (o *Ollama) EnsureModel(ctx context.Context) error {
	if err := o.client.Heartbeat(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	version, err := o.client.Version(ctx)
	if err != nil {
		return classify(err)
	}
	o.log.WithField("version", version).Info("connected to ollama server")

	tags, err := o.client.List(ctx)
	if err != nil {
		return classify(err)
	}
	for _, m := range tags.Models {
		if matchesModel(m.Name, o.model) {
			return nil
		}
	}

	o.log.WithField("model", o.model).Info("model not found locally, pulling")
	return o.pull(ctx)
}

func (o *Ollama) pull(ctx context.Context) error {
	req := &api.PullRequest{Model: o.model}
	err := o.client.Pull(ctx, req, func(p api.ProgressResponse) error {
		if p.Status != "" {
			o.log.WithFields(logrus.Fields{
				"model":     o.model,
				"status":    p.Status,
				"completed": p.Completed,
				"total":     p.Total,
			}).Debug("pull progress")
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrModelPull, o.model, err)
	}
	return nil
}

func (o *Ollama) Chat(ctx context.Context, history []Turn) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	msgs := make([]api.Message, 0, len(history))
	for _, t := range history {
		msgs = append(msgs, api.Message{Role: t.Role, Content: t.Content})
	}

	stream := false
	req := &api.ChatRequest{
		Model:    o.model,
		Messages: msgs,
		Stream:   &stream,
	}

	var reply strings.Builder
	err := o.client.Chat(ctx, req, func(resp api.ChatResponse) error {
		reply.WriteString(resp.Message.Content)
		return nil
	})
	if err != nil {
		return "", classify(err)
	}

	if reply.Len() == 0 {
		return "", fmt.Errorf("%w: empty reply", ErrProtocol)
	}
	return reply.String(), nil
}

// matchesModel compares a tag from /api/tags against the configured model.
// Tags carry a variant suffix ("phi3:latest") that config usually omits.
func matchesModel(tag, model string) bool {
	if tag == model {
		return true
	}
	return strings.HasPrefix(tag, model+":")
}

func classify(err error) error {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	case isMalformed(err):
		return fmt.Errorf("%w: %v", ErrProtocol, err)
	default:
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
}

func isMalformed(err error) bool {
	var syn *json.SyntaxError
	var typ *json.UnmarshalTypeError
	return errors.As(err, &syn) || errors.As(err, &typ)
}
