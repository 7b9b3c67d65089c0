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
	"context"
	"log/slog"
	"slices"

	"github.com/poiesic/rednote/ai"
	"github.com/poiesic/rednote/ai/dashscope"
	"github.com/poiesic/rednote/ai/google"
	"github.com/poiesic/rednote/ai/modelscope"
)

// serviceEntry pairs a provider name with its adapter constructor.
// The fallback chain is a slice of these; adding a provider means adding
// an entry, not another branch.
type serviceEntry struct {
	name      string
	construct func(cfg *ai.Config) (ai.Service, error)
}

// constructors maps every known provider name to its adapter constructor.
var constructors = map[string]func(cfg *ai.Config) (ai.Service, error){
	ai.ProviderGoogle:     google.NewService,
	ai.ProviderModelScope: modelscope.NewService,
	ai.ProviderDashScope:  dashscope.NewService,
}

// fallbackChain builds the ordered walk for the configured provider: the
// preferred provider first, then the remaining providers in the fixed
// fallback order, and google once more as the last resort. Google's
// availability check is offline (credential presence), so the repeated
// probe costs nothing.
func fallbackChain(cfg *ai.Config) []serviceEntry {
	names := []string{cfg.Provider}
	for _, name := range ai.KnownProviders {
		if !slices.Contains(names, name) {
			names = append(names, name)
		}
	}
	if names[len(names)-1] != ai.ProviderGoogle {
		names = append(names, ai.ProviderGoogle)
	}

	entries := make([]serviceEntry, 0, len(names))
	for _, name := range names {
		entries = append(entries, serviceEntry{name: name, construct: constructors[name]})
	}
	return entries
}

// SelectService walks the fallback chain and returns the first available
// AI service. The caller owns the returned service and must Close it.
// Returns ai.ErrNoServiceAvailable when every provider reports unavailable.
func SelectService(ctx context.Context, cfg *ai.Config) (ai.Service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return selectFromChain(ctx, cfg, fallbackChain(cfg))
}

func selectFromChain(ctx context.Context, cfg *ai.Config, entries []serviceEntry) (ai.Service, error) {
	logger := slog.Default().With("component", "service-selector")

	for _, entry := range entries {
		svc, err := entry.construct(cfg)
		if err != nil {
			logger.Warn("failed to construct service", "name", entry.name, "err", err)
			continue
		}
		if svc.IsAvailable(ctx) {
			logger.Info("selected AI service", "name", svc.Name())
			return svc, nil
		}
		logger.Warn("service not available, trying next", "name", entry.name)
		if err := svc.Close(); err != nil {
			logger.Warn("error closing unavailable service", "name", entry.name, "err", err)
		}
	}

	return nil, ai.ErrNoServiceAvailable
}

// AvailableServices probes every known provider once and returns the names
// that report available, in the fixed fallback order.
func AvailableServices(ctx context.Context, cfg *ai.Config) []string {
	logger := slog.Default().With("component", "service-selector")

	var available []string
	for _, name := range ai.KnownProviders {
		svc, err := constructors[name](cfg)
		if err != nil {
			logger.Warn("failed to construct service", "name", name, "err", err)
			continue
		}
		if svc.IsAvailable(ctx) {
			available = append(available, name)
		}
		if err := svc.Close(); err != nil {
			logger.Warn("error closing service after probe", "name", name, "err", err)
		}
	}
	return available
}
