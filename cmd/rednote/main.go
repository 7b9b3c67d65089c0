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


package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"slices"
	"strings"

	"github.com/poiesic/rednote"
	"github.com/poiesic/rednote/ai"
	"github.com/poiesic/rednote/publish"
	"github.com/poiesic/rednote/storage/badger"
	"github.com/urfave/cli/v2"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "rednote",
		Usage: "Generate, archive, and publish Xiaohongshu notes with AI",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
			&cli.StringFlag{
				Name:    "provider",
				Usage:   "Preferred AI provider (google, modelscope, dashscope)",
				Value:   ai.ProviderGoogle,
				EnvVars: []string{"AI_PROVIDER"},
			},
			&cli.StringFlag{
				Name:    "gemini-api-key",
				Usage:   "API key for Gemini text generation",
				EnvVars: []string{"GEMINI_API_KEY"},
			},
			&cli.StringFlag{
				Name:    "gemini-model",
				Usage:   "Gemini model name",
				Value:   ai.DefaultGeminiModel,
				EnvVars: []string{"GEMINI_MODEL_NAME"},
			},
			&cli.StringFlag{
				Name:    "imagen-api-key",
				Usage:   "API key for Imagen image generation",
				EnvVars: []string{"IMAGEN_API_KEY"},
			},
			&cli.StringFlag{
				Name:    "imagen-model",
				Usage:   "Imagen model name",
				Value:   ai.DefaultImagenModel,
				EnvVars: []string{"IMAGEN_MODEL_NAME"},
			},
			&cli.StringFlag{
				Name:    "dashscope-api-key",
				Usage:   "API key for DashScope",
				EnvVars: []string{"DASHSCOPE_API_KEY"},
			},
			&cli.StringFlag{
				Name:    "qwen-model",
				Usage:   "Qianwen text model name",
				Value:   ai.DefaultQwenModel,
				EnvVars: []string{"QIANWEN_MODEL_NAME"},
			},
			&cli.StringFlag{
				Name:    "wanx-model",
				Usage:   "Wanxiang image model name",
				Value:   ai.DefaultWanxModel,
				EnvVars: []string{"WANXIANG_MODEL_NAME"},
			},
			&cli.StringFlag{
				Name:    "modelscope-api-key",
				Usage:   "API key for ModelScope API-Inference",
				EnvVars: []string{"MODELSCOPE_API_KEY"},
			},
			&cli.StringFlag{
				Name:    "ms-text-model",
				Usage:   "ModelScope text model name",
				Value:   ai.DefaultMSTextModel,
				EnvVars: []string{"MS_TEXT_MODEL"},
			},
			&cli.StringFlag{
				Name:    "ms-image-model",
				Usage:   "ModelScope image model name",
				Value:   ai.DefaultMSImageModel,
				EnvVars: []string{"MS_IMAGE_MODEL"},
			},
			&cli.BoolFlag{
				Name:    "ms-enable-thinking",
				Usage:   "Request thinking mode for ModelScope thinking models",
				EnvVars: []string{"MS_ENABLE_THINKING"},
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "post",
				Usage:  "Generate a note for a topic, archive it, and publish it",
				Action: postCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "topic",
						Aliases: []string{"t"},
						Usage:   "Topic of the note (prompted on stdin when omitted)",
					},
					&cli.IntFlag{
						Name:    "images",
						Aliases: []string{"n"},
						Usage:   "Number of images to generate",
						Value:   1,
					},
					&cli.StringFlag{
						Name:  "data-dir",
						Usage: "Base directory for run folders",
						Value: rednote.DefaultDataDir,
					},
					&cli.StringFlag{
						Name:  "db",
						Usage: "Path to the run archive directory (empty disables archiving)",
					},
					&cli.BoolFlag{
						Name:  "no-publish",
						Usage: "Generate and archive only, do not publish",
					},
					&cli.StringFlag{
						Name:    "publish-url",
						Usage:   "Base URL of the publish service",
						Value:   "http://localhost:18060",
						EnvVars: []string{"XHS_MCP_BASE_URL"},
					},
				},
			},
			{
				Name:   "providers",
				Usage:  "Show availability of the configured AI providers",
				Action: providersCommand,
			},
			{
				Name:   "history",
				Usage:  "List recent runs from the archive",
				Action: historyCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "db",
						Aliases:  []string{"d"},
						Usage:    "Path to the run archive directory",
						Required: true,
					},
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of runs to list",
						Value: 10,
					},
				},
			},
		},
	}
}

func postCommand(c *cli.Context) error {
	ctx := context.Background()

	topic := strings.TrimSpace(c.String("topic"))
	if topic == "" {
		var err error
		topic, err = promptTopic(os.Stdin, os.Stderr)
		if err != nil {
			return fmt.Errorf("failed to read topic: %w", err)
		}
	}
	if topic == "" {
		return fmt.Errorf("topic is required")
	}

	cfg := buildConfig(c)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid AI configuration: %w", err)
	}

	opts := []rednote.WorkflowOption{
		rednote.WithDataDir(c.String("data-dir")),
	}

	if !c.Bool("no-publish") {
		opts = append(opts, rednote.WithPublisher(publish.NewClient(c.String("publish-url"))))
	}

	if dbPath := c.String("db"); dbPath != "" {
		backend, err := badger.OpenBackend(dbPath, false)
		if err != nil {
			return fmt.Errorf("failed to open run archive: %w", err)
		}
		defer backend.Close()

		repo, err := badger.NewRunRepository(backend)
		if err != nil {
			return fmt.Errorf("failed to create run repository: %w", err)
		}
		opts = append(opts, rednote.WithRunRepository(repo))
	}

	workflow := rednote.NewWorkflow(cfg, opts...)
	defer workflow.Close()

	record, err := workflow.Run(ctx, topic, c.Int("images"))
	if err != nil {
		return fmt.Errorf("run failed: %w", err)
	}

	fmt.Fprintf(os.Stderr, "Provider: %s\n", record.Provider)
	fmt.Fprintf(os.Stderr, "Images: %d\n", len(record.Images))
	fmt.Fprintf(os.Stderr, "Published: %t\n", record.Published)
	fmt.Fprintln(os.Stdout, record.Dir)

	return nil
}

func providersCommand(c *cli.Context) error {
	ctx := context.Background()

	cfg := buildConfig(c)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid AI configuration: %w", err)
	}

	available := rednote.AvailableServices(ctx, cfg)
	for _, name := range ai.KnownProviders {
		status := "unavailable"
		if slices.Contains(available, name) {
			status = "available"
		}
		marker := " "
		if name == cfg.Provider {
			marker = "*"
		}
		fmt.Fprintf(os.Stdout, "%s %-12s %s\n", marker, name, status)
	}

	return nil
}

func historyCommand(c *cli.Context) error {
	ctx := context.Background()

	dbPath := c.String("db")
	if dbPath == "" {
		return fmt.Errorf("database path is required")
	}

	backend, err := badger.OpenBackend(dbPath, false)
	if err != nil {
		return fmt.Errorf("failed to open run archive: %w", err)
	}
	defer backend.Close()

	repo, err := badger.NewRunRepository(backend)
	if err != nil {
		return fmt.Errorf("failed to create run repository: %w", err)
	}
	defer repo.Close()

	runs, err := repo.GetRecentRuns(ctx, c.Int("limit"))
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}
	if len(runs) == 0 {
		fmt.Fprintln(os.Stderr, "No runs recorded.")
		return nil
	}

	for _, run := range runs {
		status := "local"
		if run.Published {
			status = "published"
		}
		fmt.Fprintf(os.Stdout, "%s  %-10s  %-9s  %s\n",
			run.CreatedAt.Local().Format("2006-01-02 15:04"),
			run.Provider, status, run.Topic)
	}

	return nil
}

// buildConfig assembles the AI configuration from flags and environment.
func buildConfig(c *cli.Context) *ai.Config {
	return ai.NewConfig(
		ai.WithProvider(c.String("provider")),
		ai.WithGeminiAPIKey(c.String("gemini-api-key")),
		ai.WithGeminiModel(c.String("gemini-model")),
		ai.WithImagenAPIKey(c.String("imagen-api-key")),
		ai.WithImagenModel(c.String("imagen-model")),
		ai.WithDashScopeAPIKey(c.String("dashscope-api-key")),
		ai.WithQwenModel(c.String("qwen-model")),
		ai.WithWanxModel(c.String("wanx-model")),
		ai.WithModelScopeAPIKey(c.String("modelscope-api-key")),
		ai.WithMSTextModel(c.String("ms-text-model")),
		ai.WithMSImageModel(c.String("ms-image-model")),
		ai.WithMSEnableThinking(c.Bool("ms-enable-thinking")),
	)
}

// promptTopic asks for a topic on out and reads one line from in.
func promptTopic(in io.Reader, out io.Writer) (string, error) {
	fmt.Fprint(out, "Please enter the topic for your Xiaohongshu note: ")
	reader := bufio.NewReader(in)
	line, err := reader.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func setupLogger(c *cli.Context) error {
	// Get log level from flag and normalize to lowercase
	levelStr := strings.ToLower(c.String("log-level"))

	// Map string to slog.Level
	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	// Configure slog with the specified level
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
