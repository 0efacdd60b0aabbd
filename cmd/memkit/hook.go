// Copyright (C) 2025 sage-x-project
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.

// SPDX-License-Identifier: LGPL-3.0-or-later

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/sage-x-project/memkit/adapters/llm"
	"github.com/sage-x-project/memkit/config"
	"github.com/sage-x-project/memkit/observability/logging"
	"github.com/sage-x-project/memkit/pipeline"
	"github.com/sage-x-project/memkit/storage"
)

func init() {
	rootCmd.AddCommand(
		hookCommand("context", "Render recent project context for a session start",
			func(ctx context.Context, p *pipeline.Pipeline, event *pipeline.Event) (*pipeline.HookResponse, error) {
				payload, err := p.HandleSessionStart(ctx, event)
				if err != nil {
					return nil, err
				}
				resp := pipeline.NewHookResponse(true)
				if payload != "" {
					resp.HookSpecificOutput = &pipeline.HookSpecificOutput{
						HookEventName:     "SessionStart",
						AdditionalContext: payload,
					}
				}
				return resp, nil
			}),
		hookCommand("session-init", "Ensure the session record exists",
			func(ctx context.Context, p *pipeline.Pipeline, event *pipeline.Event) (*pipeline.HookResponse, error) {
				if _, err := p.HandleSessionStart(ctx, event); err != nil {
					return nil, err
				}
				return pipeline.NewHookResponse(true), nil
			}),
		hookCommand("observation", "Record a tool invocation as an observation",
			func(ctx context.Context, p *pipeline.Pipeline, event *pipeline.Event) (*pipeline.HookResponse, error) {
				if _, err := p.HandleToolUse(ctx, event); err != nil {
					return nil, err
				}
				return pipeline.NewHookResponse(true), nil
			}),
		hookCommand("user-message", "Record a submitted user prompt",
			func(ctx context.Context, p *pipeline.Pipeline, event *pipeline.Event) (*pipeline.HookResponse, error) {
				if _, err := p.HandlePrompt(ctx, event); err != nil {
					return nil, err
				}
				return pipeline.NewHookResponse(true), nil
			}),
		hookCommand("summarize", "Fold the session into a summary",
			func(ctx context.Context, p *pipeline.Pipeline, event *pipeline.Event) (*pipeline.HookResponse, error) {
				if _, err := p.HandleSessionEnd(ctx, event); err != nil {
					return nil, err
				}
				return pipeline.NewHookResponse(true), nil
			}),
		enrichCmd,
	)
}

// hookHandler runs one hook event against the pipeline.
type hookHandler func(ctx context.Context, p *pipeline.Pipeline, event *pipeline.Event) (*pipeline.HookResponse, error)

// hookCommand builds one stdin-consuming hook subcommand. Hook errors
// never block the host: they are logged to stderr and the standard
// response is emitted with exit 0.
func hookCommand(name, short string, handler hookHandler) *cobra.Command {
	return &cobra.Command{
		Use:   name,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			data, err := io.ReadAll(os.Stdin)
			if err != nil {
				data = nil
			}
			event := pipeline.ParseEnvelope(data)

			resp := pipeline.NewHookResponse(true)
			p, cleanup, err := buildPipeline(ctx, event.CWD)
			if err != nil {
				fmt.Fprintf(os.Stderr, "memkit %s: %v\n", name, err)
				return emit(resp)
			}
			defer cleanup()

			if handled, err := handler(ctx, p, event); err != nil {
				fmt.Fprintf(os.Stderr, "memkit %s: %v\n", name, err)
			} else {
				resp = handled
			}
			return emit(resp)
		},
	}
}

var enrichCmd = &cobra.Command{
	Use:   "enrich <observationId> [cwd]",
	Short: "Re-run enrichment for a stored observation",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		cwd := ""
		if len(args) > 1 {
			cwd = args[1]
		}

		resp := pipeline.NewHookResponse(true)
		p, cleanup, err := buildPipeline(ctx, cwd)
		if err != nil {
			fmt.Fprintf(os.Stderr, "memkit enrich: %v\n", err)
			return emit(resp)
		}
		defer cleanup()

		if _, err := p.EnrichObservation(ctx, args[0]); err != nil {
			fmt.Fprintf(os.Stderr, "memkit enrich: %v\n", err)
		}
		return emit(resp)
	},
}

// buildPipeline wires storage and the optional oracle from the
// configuration, rooted at the event's working directory.
func buildPipeline(ctx context.Context, cwd string) (*pipeline.Pipeline, func(), error) {
	cfg, err := config.LoadOrDefault(configPath)
	if err != nil {
		return nil, nil, err
	}
	if cwd != "" {
		cfg.Store.BaseDir = cwd
	}

	logger := newLogger(cfg)

	engine, err := storage.NewEngine(cfg, &storage.EngineDeps{Logger: logger})
	if err != nil {
		return nil, nil, err
	}
	if err := engine.Initialize(ctx); err != nil {
		return nil, nil, err
	}

	var oracle pipeline.EnrichmentOracle
	if cfg.LLM.Provider != "" {
		provider, err := providerFromConfig(cfg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "memkit: oracle disabled: %v\n", err)
		} else {
			oracle = pipeline.NewLLMOracle(pipeline.LLMOracleConfig{
				Provider: provider,
				Model:    cfg.LLM.Model,
				Timeout:  cfg.Pipeline.OracleTimeout,
				Rate:     cfg.Pipeline.OracleRate,
			})
		}
	}

	p := pipeline.New(pipeline.Config{
		Store:         engine,
		Oracle:        oracle,
		ResponseLimit: cfg.Pipeline.ResponseLimit,
		Logger:        logger,
	})
	return p, func() { engine.Close() }, nil
}

func providerFromConfig(cfg *config.Config) (llm.Provider, error) {
	switch cfg.LLM.Provider {
	case "openai":
		return llm.OpenAI(&llm.OpenAIConfig{
			APIKey: cfg.LLM.APIKey,
			Model:  cfg.LLM.Model,
		}), nil
	case "anthropic":
		return llm.Anthropic(&llm.AnthropicConfig{
			APIKey: cfg.LLM.APIKey,
			Model:  cfg.LLM.Model,
		}), nil
	default:
		return llm.FromName(cfg.LLM.Provider)
	}
}

func newLogger(cfg *config.Config) logging.Logger {
	level := logging.Level(cfg.Logging.Level)
	if cfg.Logging.Format == "zap" {
		return logging.NewZapLogger(level)
	}
	// Hook output on stdout belongs to the host protocol; logs go to
	// stderr.
	return logging.NewStructuredLoggerWithOutput(level, os.Stderr)
}

// emit writes the response envelope to stdout. The hook contract is
// exit 0 in every non-fatal case.
func emit(resp *pipeline.HookResponse) error {
	return json.NewEncoder(os.Stdout).Encode(resp)
}
