// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package rednote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/poiesic/rednote/ai"
	"github.com/poiesic/rednote/core"
	"github.com/poiesic/rednote/storage"
)

const (
	// DefaultDataDir is the base directory for run folders when none is set.
	DefaultDataDir = "data"

	// noteFileName is the archived copy of the generated note inside a run folder.
	noteFileName = "content.json"

	// topicDirRunes caps the sanitized topic suffix of a run folder name.
	topicDirRunes = 50
)

// Publisher delivers a finished note with its images to the publishing
// collaborator. *publish.Client implements it.
type Publisher interface {
	Publish(ctx context.Context, note *core.Note, imagePaths []string) error
}

// Workflow drives one note from topic to archived (and optionally published)
// run folder. It bundles the AI service, the publisher, and the run archive;
// the publisher and the archive are optional and skipped when absent.
type Workflow struct {
	cfg       *ai.Config
	service   ai.Service
	publisher Publisher
	runs      storage.RunRepository
	dataDir   string
	logger    *slog.Logger
}

// WorkflowOption configures a Workflow.
type WorkflowOption func(*workflowOptions)

type workflowOptions struct {
	service   ai.Service
	publisher Publisher
	runs      storage.RunRepository
	dataDir   string
}

// WithService injects a pre-built AI service, bypassing provider selection.
// The workflow takes ownership and closes the service on Close.
func WithService(svc ai.Service) WorkflowOption {
	return func(o *workflowOptions) {
		o.service = svc
	}
}

// WithPublisher attaches a publisher. Without one, runs are archived unpublished.
func WithPublisher(p Publisher) WorkflowOption {
	return func(o *workflowOptions) {
		o.publisher = p
	}
}

// WithRunRepository attaches a run archive. The workflow takes ownership and
// closes the repository on Close.
func WithRunRepository(repo storage.RunRepository) WorkflowOption {
	return func(o *workflowOptions) {
		o.runs = repo
	}
}

// WithDataDir overrides the base directory run folders are created under.
func WithDataDir(dir string) WorkflowOption {
	return func(o *workflowOptions) {
		o.dataDir = dir
	}
}

func NewWorkflow(cfg *ai.Config, opts ...WorkflowOption) *Workflow {
	// Apply options
	options := &workflowOptions{
		dataDir: DefaultDataDir,
	}
	for _, opt := range opts {
		opt(options)
	}
	if cfg == nil {
		cfg = ai.DefaultConfig()
	}

	return &Workflow{
		cfg:       cfg,
		service:   options.service,
		publisher: options.publisher,
		runs:      options.runs,
		dataDir:   options.dataDir,
		logger:    slog.Default().With("component", "workflow"),
	}
}

// Run generates, archives, and optionally publishes one note for topic.
//
// Text generation failure aborts the run. Image generation is best-effort:
// the run is archived either way, and publishing only happens when a
// publisher is attached and at least one image was saved. A publish failure
// leaves the run archived as unpublished. The returned record reflects what
// actually happened; it carries an ID only when a run archive is attached.
func (w *Workflow) Run(ctx context.Context, topic string, numImages int) (*core.RunRecord, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return nil, core.ErrEmptyTopic
	}
	startedAt := time.Now()

	svc, err := w.ensureService(ctx)
	if err != nil {
		return nil, err
	}

	runDir, err := w.createRunDir(topic, startedAt)
	if err != nil {
		return nil, fmt.Errorf("create run folder: %w", err)
	}
	w.logger.Info("starting workflow run", "topic", topic, "provider", svc.Name(), "dir", runDir)

	note, err := svc.GenerateTextContent(ctx, topic)
	if err != nil {
		w.logger.Error("text generation failed", "provider", svc.Name(), "error", err)
		return nil, fmt.Errorf("generate text content: %w", err)
	}

	if err := writeNoteFile(runDir, note); err != nil {
		w.logger.Error("failed to archive note", "error", err)
		return nil, fmt.Errorf("archive note: %w", err)
	}

	var images []string
	if numImages > 0 {
		images, err = svc.GenerateImages(ctx, note.Content, runDir, numImages, "")
		if err != nil {
			w.logger.Warn("image generation failed", "provider", svc.Name(), "error", err)
			images = nil
		}
	}

	published := false
	switch {
	case w.publisher == nil:
		w.logger.Info("no publisher configured, keeping run local")
	case len(images) == 0:
		w.logger.Warn("no images saved, skipping publish")
	default:
		if err := w.publisher.Publish(ctx, note, images); err != nil {
			w.logger.Error("publish failed", "error", err)
		} else {
			published = true
		}
	}

	record := &core.RunRecord{
		Topic:     topic,
		Note:      *note,
		Images:    images,
		Dir:       runDir,
		Provider:  svc.Name(),
		Published: published,
		CreatedAt: startedAt.UTC(),
	}
	if w.runs != nil {
		stored, err := w.runs.AddRuns(ctx, record)
		if err != nil {
			w.logger.Error("failed to record run in archive", "error", err)
		} else {
			record = stored[0]
		}
	}

	w.logger.Info("workflow run complete",
		"dir", runDir, "images", len(images), "published", published)
	return record, nil
}

// ensureService returns the injected service or selects one through the
// provider fallback chain on first use.
func (w *Workflow) ensureService(ctx context.Context) (ai.Service, error) {
	if w.service != nil {
		return w.service, nil
	}
	svc, err := SelectService(ctx, w.cfg)
	if err != nil {
		return nil, err
	}
	w.service = svc
	return svc, nil
}

// createRunDir creates {dataDir}/{YYYYMMDD_HHMMSS}_{sanitized topic} and
// returns its path.
func (w *Workflow) createRunDir(topic string, now time.Time) (string, error) {
	name := now.Format("20060102_150405") + "_" + sanitizeTopic(topic)
	dir := filepath.Join(w.dataDir, name)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	return dir, nil
}

// sanitizeTopic maps every non-alphanumeric rune to '_' and cuts the result
// to topicDirRunes runes, yielding a filesystem-safe folder suffix that keeps
// CJK topics readable.
func sanitizeTopic(topic string) string {
	runes := []rune(topic)
	for i, r := range runes {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			runes[i] = '_'
		}
	}
	return core.TruncateRunes(string(runes), topicDirRunes)
}

// writeNoteFile archives the note as indented UTF-8 JSON inside dir.
// HTML escaping is off so CJK text and emoji land in the file as typed.
func writeNoteFile(dir string, note *core.Note) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(note); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, noteFileName), buf.Bytes(), 0644)
}

func (w *Workflow) Close() error {
	// Close the AI service first
	if w.service != nil {
		if err := w.service.Close(); err != nil {
			w.logger.Error("error closing AI service", "err", err)
		}
	}

	// Close the run archive
	if w.runs != nil {
		if err := w.runs.Close(); err != nil {
			w.logger.Error("error closing run archive", "err", err)
			return err
		}
	}
	return nil
}
