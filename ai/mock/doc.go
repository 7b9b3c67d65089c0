// Package mock provides a test double implementation of the AI service interface.
//
// MockService implements ai.Service for use in unit tests. It allows tests to
// run without external AI providers and enables controlled, deterministic
// behavior.
//
// # Usage in Tests
//
//	// Basic usage with default behavior
//	svc := mock.NewMockService()
//	note, err := svc.GenerateTextContent(ctx, "healthy breakfast ideas")
//
//	// Custom behavior injection
//	svc.GenerateTextContentFunc = func(ctx context.Context, topic string) (*core.Note, error) {
//	    return nil, errors.New("model offline")
//	}
//
//	// Check call counts
//	count := svc.TextCalls()
//
// # Default Behavior
//
// The defaults are deterministic: the topic is echoed into the note, and
// GenerateImages writes small placeholder PNG files into the save directory
// so downstream existence checks pass.
package mock
