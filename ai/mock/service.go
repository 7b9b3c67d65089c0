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


package mock

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"

	"github.com/poiesic/rednote/ai"
	"github.com/poiesic/rednote/core"
)

// MockService is a test double for ai.Service.
// It allows custom behavior injection via function fields.
type MockService struct {
	// NameFunc is called by Name if set.
	NameFunc func() string

	// IsAvailableFunc is called by IsAvailable if set.
	// If nil, the constructor-supplied availability flag is returned.
	IsAvailableFunc func(ctx context.Context) bool

	// GenerateTextContentFunc is called by GenerateTextContent if set.
	// If nil, a deterministic note derived from the topic is returned.
	GenerateTextContentFunc func(ctx context.Context, topic string) (*core.Note, error)

	// GenerateImagesFunc is called by GenerateImages if set.
	// If nil, small placeholder PNG files are written into saveDir.
	GenerateImagesFunc func(ctx context.Context, content, saveDir string, numImages int, imagePrompt string) ([]string, error)

	// CloseFunc is called by Close if set.
	CloseFunc func() error

	name      string
	available bool

	availabilityCalls int
	textCalls         int
	imageCalls        int
	closeCalls        int
}

var _ ai.Service = (*MockService)(nil)

// NewMockService creates a mock service named "mock" that reports available.
//
// Note: Returns the concrete type so tests can inject behavior and read
// call counts.
func NewMockService() *MockService {
	return NewMockServiceNamed("mock", true)
}

// NewMockServiceNamed creates a mock service with the given name and
// availability flag. Useful for fallback chain tests that need several
// services with distinct availability.
func NewMockServiceNamed(name string, available bool) *MockService {
	return &MockService{name: name, available: available}
}

// Name returns the configured service name.
func (m *MockService) Name() string {
	if m.NameFunc != nil {
		return m.NameFunc()
	}
	return m.name
}

// IsAvailable reports the configured availability flag.
func (m *MockService) IsAvailable(ctx context.Context) bool {
	m.availabilityCalls++

	if m.IsAvailableFunc != nil {
		return m.IsAvailableFunc(ctx)
	}
	return m.available
}

// GenerateTextContent returns a deterministic note derived from the topic.
func (m *MockService) GenerateTextContent(ctx context.Context, topic string) (*core.Note, error) {
	m.textCalls++

	if m.GenerateTextContentFunc != nil {
		return m.GenerateTextContentFunc(ctx, topic)
	}

	title := core.TruncateRunes(topic, core.TitleRuneLimit)
	if title == "" {
		title = ai.DefaultNoteTitle
	}
	return &core.Note{
		Title:   title,
		Content: "分享一些关于" + topic + "的心得。",
		Tags:    []string{"分享", "测试"},
	}, nil
}

// GenerateImages writes numImages placeholder PNG files into saveDir and
// returns their absolute paths.
func (m *MockService) GenerateImages(ctx context.Context, content, saveDir string, numImages int, imagePrompt string) ([]string, error) {
	m.imageCalls++

	if m.GenerateImagesFunc != nil {
		return m.GenerateImagesFunc(ctx, content, saveDir, numImages, imagePrompt)
	}

	paths := make([]string, 0, numImages)
	for i := 0; i < numImages; i++ {
		path := filepath.Join(saveDir, fmt.Sprintf("%s_image_%d.png", m.Name(), i+1))
		if err := writePlaceholderPNG(path); err != nil {
			return paths, err
		}
		abs, err := filepath.Abs(path)
		if err != nil {
			return paths, err
		}
		paths = append(paths, abs)
	}
	return paths, nil
}

// Close is a no-op by default.
func (m *MockService) Close() error {
	m.closeCalls++

	if m.CloseFunc != nil {
		return m.CloseFunc()
	}
	return nil
}

// AvailabilityCalls returns the number of IsAvailable calls.
func (m *MockService) AvailabilityCalls() int {
	return m.availabilityCalls
}

// TextCalls returns the number of GenerateTextContent calls.
func (m *MockService) TextCalls() int {
	return m.textCalls
}

// ImageCalls returns the number of GenerateImages calls.
func (m *MockService) ImageCalls() int {
	return m.imageCalls
}

// CloseCalls returns the number of Close calls.
func (m *MockService) CloseCalls() int {
	return m.closeCalls
}

// CallCount returns the number of times any method besides Name was called.
func (m *MockService) CallCount() int {
	return m.availabilityCalls + m.textCalls + m.imageCalls + m.closeCalls
}

// Reset clears the call counts and injected behavior.
func (m *MockService) Reset() {
	m.availabilityCalls = 0
	m.textCalls = 0
	m.imageCalls = 0
	m.closeCalls = 0
	m.NameFunc = nil
	m.IsAvailableFunc = nil
	m.GenerateTextContentFunc = nil
	m.GenerateImagesFunc = nil
	m.CloseFunc = nil
}

// writePlaceholderPNG writes a 1x1 PNG so existence checks downstream pass.
func writePlaceholderPNG(path string) error {
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 1, 1))); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}
