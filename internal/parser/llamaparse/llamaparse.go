// Package llamaparse is a client for the LlamaCloud document parsing API.
package llamaparse

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/talentlens/internal/utils"
)

const (
	apiURL    = "https://api.cloud.llamaindex.ai"
	userAgent = "spigell/talentlens"

	defaultPollInterval = time.Second
	defaultTimeout      = 2 * time.Minute

	statusSuccess  = "SUCCESS"
	statusError    = "ERROR"
	statusCanceled = "CANCELED"
)

type Client struct {
	token        string
	logger       *zap.Logger
	HTTPClient   *http.Client
	UserAgent    string
	APIURL       string
	PollInterval time.Duration
	// Timeout bounds a whole Parse call including polling.
	Timeout time.Duration
}

func New(logger *zap.Logger, token string) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		token:  token,
		logger: logger,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		UserAgent:    userAgent,
		APIURL:       apiURL,
		PollInterval: defaultPollInterval,
		Timeout:      defaultTimeout,
	}
}

// Job is the parsing job state returned by the API.
type Job struct {
	ID           string `json:"id"`
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message,omitempty"`
}

// Page is one parsed page of a result.
type Page struct {
	Page     int    `json:"page"`
	Markdown string `json:"md"`
	Text     string `json:"text"`
}

type result struct {
	Pages []Page `json:"pages"`
}

// Parse uploads the file, waits for the job and returns the markdown of every
// non-empty page.
func (c *Client) Parse(ctx context.Context, filename string, data []byte) ([]string, error) {
	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	job, err := c.upload(ctx, filename, data)
	if err != nil {
		return nil, fmt.Errorf("upload %s: %w", filename, err)
	}

	c.logger.Debug("parsing job created", zap.String("job_id", job.ID), zap.String("file", filename))

	if err := c.wait(ctx, job); err != nil {
		return nil, err
	}

	var res result
	if err := c.getJSON(ctx, c.jobURL(job.ID)+"/result/json", &res); err != nil {
		return nil, fmt.Errorf("get parsing result %s: %w", job.ID, err)
	}

	sections := make([]string, 0, len(res.Pages))
	for _, page := range res.Pages {
		content := strings.TrimSpace(page.Markdown)
		if content == "" {
			content = strings.TrimSpace(page.Text)
		}
		if content != "" {
			sections = append(sections, content)
		}
	}

	c.logger.Debug("parsing job finished",
		zap.String("job_id", job.ID),
		zap.Int("pages", len(res.Pages)),
		zap.Int("sections", len(sections)),
	)

	return sections, nil
}

func (c *Client) upload(ctx context.Context, filename string, data []byte) (*Job, error) {
	var job Job
	if err := c.postFile(ctx, c.APIURL+"/api/v1/parsing/upload", filename, data, &job); err != nil {
		return nil, err
	}
	if job.ID == "" {
		return nil, errors.New("api returned job without id")
	}
	return &job, nil
}

func (c *Client) wait(ctx context.Context, job *Job) error {
	interval := c.PollInterval
	if interval <= 0 {
		interval = defaultPollInterval
	}

	current := job
	for {
		switch strings.ToUpper(current.Status) {
		case statusSuccess:
			return nil
		case statusError, statusCanceled:
			msg := current.ErrorMessage
			if msg == "" {
				msg = "no details"
			}
			return fmt.Errorf("parsing job %s finished with status %s: %s", current.ID, current.Status, msg)
		}

		if err := utils.WaitFor(ctx, interval); err != nil {
			return fmt.Errorf("waiting for parsing job %s: %w", current.ID, err)
		}

		var next Job
		if err := c.getJSON(ctx, c.jobURL(job.ID), &next); err != nil {
			return fmt.Errorf("get parsing job %s: %w", job.ID, err)
		}
		if next.ID == "" {
			next.ID = job.ID
		}
		current = &next
	}
}

func (c *Client) jobURL(id string) string {
	return c.APIURL + "/api/v1/parsing/job/" + id
}
