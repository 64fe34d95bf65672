package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"carepilot/internal/chat"
	"carepilot/internal/domain"
)

func newAskCmd(opts *rootOptions) *cobra.Command {
	var planPath string
	cmd := &cobra.Command{
		Use:   "ask --plan plan.json <question>",
		Short: "Ask a question answered only from a saved care plan",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			plan, err := readPlan(planPath)
			if err != nil {
				return err
			}

			cfg, logger, err := opts.setup(cmd.ErrOrStderr())
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			pipeline, err := buildPipeline(cfg, logger)
			if err != nil {
				return err
			}

			history := []domain.ConversationTurn{
				{Role: domain.RoleAssistant, Content: chat.Greeting},
				{Role: domain.RoleUser, Content: strings.Join(args, " ")},
			}
			reply, err := pipeline.Chat.Reply(cmd.Context(), history, plan)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), reply.Content)
			return nil
		},
	}
	cmd.Flags().StringVarP(&planPath, "plan", "p", "", "care plan JSON written by intake (required)")
	_ = cmd.MarkFlagRequired("plan")
	return cmd
}

func readPlan(path string) (*domain.CarePlan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read care plan: %w", err)
	}
	var plan domain.CarePlan
	if err := json.Unmarshal(data, &plan); err != nil {
		return nil, fmt.Errorf("parse care plan: %w", err)
	}
	return &plan, nil
}
