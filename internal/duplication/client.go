package duplication

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/noah-isme/lms-recur/internal/models"
	"github.com/noah-isme/lms-recur/pkg/config"
	appErrors "github.com/noah-isme/lms-recur/pkg/errors"
)

// Client calls the LMS course-duplication collaborator. The engine owns no
// duplication mechanics; it sends the source course, the resolved names and
// the option flags, and receives the new course handle.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
	logger  *zap.Logger
}

// NewClient constructs a duplication client from config.
func NewClient(cfg config.DuplicationConfig, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL: cfg.BaseURL,
		token:   cfg.Token,
		http:    &http.Client{Timeout: cfg.Timeout},
		logger:  logger,
	}
}

type duplicateRequest struct {
	FullName   string              `json:"full_name"`
	ShortName  string              `json:"short_name"`
	CategoryID int64               `json:"category_id"`
	Visible    bool                `json:"visible"`
	Options    models.CloneOptions `json:"options"`
}

// Duplicate clones sourceCourseID into a new course with the given names.
func (c *Client) Duplicate(ctx context.Context, sourceCourseID int64, fullName, shortName string, categoryID int64, visible bool, opts models.CloneOptions) (*models.CourseHandle, error) {
	payload, err := json.Marshal(duplicateRequest{
		FullName:   fullName,
		ShortName:  shortName,
		CategoryID: categoryID,
		Visible:    visible,
		Options:    opts,
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "encode duplication request")
	}

	url := fmt.Sprintf("%s/courses/%d/duplicate", c.baseURL, sourceCourseID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "build duplication request")
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrCollaborator.Code, appErrors.ErrCollaborator.Status, "duplication call failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		c.logger.Warn("duplication rejected",
			zap.Int64("source_course_id", sourceCourseID),
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", body),
		)
		return nil, appErrors.Clone(appErrors.ErrCollaborator, fmt.Sprintf("duplication returned status %d", resp.StatusCode))
	}

	var handle models.CourseHandle
	if err := json.NewDecoder(resp.Body).Decode(&handle); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrCollaborator.Code, appErrors.ErrCollaborator.Status, "decode duplication response")
	}
	return &handle, nil
}
