package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"tierd/internal/client"
	"tierd/pkg/types"
)

func isRetryable(err error) bool {
	var ae *client.APIError
	return errors.As(err, &ae) && ae.Retryable
}

func generateCmd(g *globals) *cobra.Command {
	var req types.GenerateRequest
	cmd := &cobra.Command{
		Use:   "generate PROMPT...",
		Short: "Generate text; the server picks and loads a model unless --model is given",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req.Prompt = strings.Join(args, " ")
			resp, err := g.client().Generate(cmd.Context(), req)
			if err != nil {
				return err
			}
			return g.emit(resp, func(w io.Writer) { formatGenerate(w, resp) })
		},
	}
	f := cmd.Flags()
	f.StringVarP(&req.Model, "model", "m", "", "Model id")
	f.StringVarP(&req.ThinkingMode, "thinking", "t", "", "Thinking mode: immediate, future or strategic")
	f.StringVarP(&req.Priority, "priority", "p", "", "Selection priority: speed, quality or balanced")
	f.IntVar(&req.MaxTokens, "max-tokens", 0, "Maximum tokens to generate")
	f.Float64Var(&req.Temperature, "temperature", 0, "Sampling temperature")
	return cmd
}

func batchCmd(g *globals) *cobra.Command {
	var req types.BatchRequest
	cmd := &cobra.Command{
		Use:   "batch PROMPT [PROMPT...]",
		Short: "Generate for several prompts at once",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req.Prompts = args
			resp, err := g.client().Batch(cmd.Context(), req)
			if err != nil {
				return err
			}
			return g.emit(resp, func(w io.Writer) { formatBatch(w, resp) })
		},
	}
	f := cmd.Flags()
	f.StringVarP(&req.Model, "model", "m", "", "Model id")
	f.StringVarP(&req.ThinkingMode, "thinking", "t", "", "Thinking mode")
	f.StringVarP(&req.Priority, "priority", "p", "", "Selection priority")
	return cmd
}

func modelsCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "List catalog models",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := g.client().ListModels(cmd.Context())
			if err != nil {
				return err
			}
			return g.emit(resp, func(w io.Writer) { formatModels(w, resp.Models) })
		},
	}
}

func modelCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "model ID",
		Short: "Show one model and where it is resident",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := g.client().ModelInfo(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return g.emit(resp, func(w io.Writer) { formatModelInfo(w, resp) })
		},
	}
}

func selectCmd(g *globals) *cobra.Command {
	var req types.SelectRequest
	cmd := &cobra.Command{
		Use:   "select PROMPT...",
		Short: "Ask which model would serve a prompt, without loading it",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req.Prompt = strings.Join(args, " ")
			resp, err := g.client().Select(cmd.Context(), req)
			if err != nil {
				return err
			}
			return g.emit(resp, func(w io.Writer) { fmt.Fprintln(w, resp.Justification) })
		},
	}
	f := cmd.Flags()
	f.StringVarP(&req.ThinkingMode, "thinking", "t", "", "Thinking mode")
	f.StringVarP(&req.Priority, "priority", "p", "", "Selection priority")
	f.StringVar(&req.TargetTier, "tier", "", "Force a tier: ram, swap or storage")
	return cmd
}

func manage(g *globals, cmd *cobra.Command, req types.ManageRequest) error {
	resp, err := g.client().Manage(cmd.Context(), req)
	if err != nil {
		return err
	}
	return g.emit(resp, func(w io.Writer) {
		switch {
		case resp.Result != nil:
			formatResult(w, *resp.Result)
		case resp.Swap != nil:
			formatSwap(w, resp.Swap)
		case resp.Memory != nil:
			formatMemory(w, resp.Memory)
		}
	})
}

func loadCmd(g *globals) *cobra.Command {
	var tier string
	cmd := &cobra.Command{
		Use:   "load ID",
		Short: "Load a model into its hinted tier or --tier",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return manage(g, cmd, types.ManageRequest{Action: "load", Model: args[0], ForceTier: tier})
		},
	}
	cmd.Flags().StringVar(&tier, "tier", "", "Target tier: ram, swap or storage")
	return cmd
}

func unloadCmd(g *globals) *cobra.Command {
	var toStorage bool
	cmd := &cobra.Command{
		Use:   "unload ID",
		Short: "Unload a model, optionally caching it in STORAGE",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return manage(g, cmd, types.ManageRequest{Action: "unload", Model: args[0], ToStorage: toStorage})
		},
	}
	cmd.Flags().BoolVar(&toStorage, "to-storage", false, "Keep the model cached in STORAGE")
	return cmd
}

func swapCmd(g *globals) *cobra.Command {
	var req types.HotSwapRequest
	cmd := &cobra.Command{
		Use:   "swap SOURCE TARGET",
		Short: "Unload SOURCE then load TARGET",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			req.Source, req.Target = args[0], args[1]
			resp, err := g.client().HotSwap(cmd.Context(), req)
			if err != nil {
				return err
			}
			return g.emit(resp, func(w io.Writer) { formatSwap(w, resp) })
		},
	}
	cmd.Flags().StringVar(&req.TargetTier, "tier", "", "Tier for TARGET")
	cmd.Flags().BoolVar(&req.ToStorage, "to-storage", false, "Cache SOURCE in STORAGE")
	return cmd
}

func memoryCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "memory",
		Short: "Show tier usage and residents",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := g.client().Memory(cmd.Context())
			if err != nil {
				return err
			}
			return g.emit(resp, func(w io.Writer) { formatMemory(w, resp) })
		},
	}
}

func statusCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show system status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := g.client().System(cmd.Context())
			if err != nil {
				return err
			}
			return g.emit(resp, func(w io.Writer) { formatSystem(w, resp) })
		},
	}
}

func optimizeCmd(g *globals) *cobra.Command {
	var strategy string
	cmd := &cobra.Command{
		Use:   "optimize",
		Short: "Rebalance residents across tiers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := g.client().Optimize(cmd.Context(), strategy)
			if err != nil {
				return err
			}
			return g.emit(resp, func(w io.Writer) { formatOptimize(w, resp) })
		},
	}
	cmd.Flags().StringVarP(&strategy, "strategy", "s", "balanced", "aggressive, balanced or conservative")
	return cmd
}

func sessionCmd(g *globals) *cobra.Command {
	var req types.SessionRequest
	cmd := &cobra.Command{
		Use:   "session ID",
		Short: "Create an agent session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req.SessionID = args[0]
			resp, err := g.client().CreateSession(cmd.Context(), req)
			if err != nil {
				return err
			}
			return g.emit(resp, func(w io.Writer) {
				fmt.Fprintf(w, "session %s %s", resp.SessionID, resp.Status)
				if resp.Model != "" {
					fmt.Fprintf(w, " (model %s)", resp.Model)
				}
				fmt.Fprintln(w)
			})
		},
	}
	cmd.Flags().StringVarP(&req.Model, "model", "m", "", "Pin the session to a model")
	return cmd
}
