// Command argus evaluates a research paper for factual accuracy and
// publishability, printing the combined verdict.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/argus-eval/argus/internal/application"
	"github.com/argus-eval/argus/internal/domain"
)

var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

type rootOptions struct {
	configPath string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "argus",
		Short:         "Evaluate research papers for factual accuracy and publishability",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setupLogging(opts.logLevel)
		},
	}

	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "path to the configuration file")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "info", "log level (debug, info, warn, error)")

	cmd.AddCommand(newEvaluateCmd(opts))
	cmd.AddCommand(newVersionCmd())
	return cmd
}

func setupLogging(level string) error {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})
	slog.SetDefault(slog.New(handler))
	return nil
}

type evaluateOptions struct {
	title    string
	topic    string
	sections []string
}

func newEvaluateCmd(root *rootOptions) *cobra.Command {
	opts := &evaluateOptions{}

	cmd := &cobra.Command{
		Use:   "evaluate <paper.txt>",
		Short: "Run both evaluation workflows against a paper and print the verdict",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := application.LoadConfig(root.configPath)
			if err != nil {
				return err
			}

			evaluator, err := application.BuildEvaluator(cfg, prometheus.DefaultRegisterer, slog.Default())
			if err != nil {
				return err
			}

			paper := &domain.Paper{
				Path:     args[0],
				Title:    opts.title,
				Topic:    opts.topic,
				Sections: opts.sections,
			}

			verdict, err := evaluator.Evaluate(cmd.Context(), paper)
			if err != nil {
				return err
			}

			renderVerdict(cmd, verdict)
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.title, "title", "", "paper title")
	cmd.Flags().StringVar(&opts.topic, "topic", "", "paper topic, guides reviewer personas")
	cmd.Flags().StringSliceVar(&opts.sections, "sections",
		[]string{"Introduction", "Methodology", "Results", "Conclusion"},
		"paper section names; one review question is asked per section")
	return cmd
}

func renderVerdict(cmd *cobra.Command, verdict *domain.CombinedVerdict) {
	out := cmd.OutOrStdout()

	fmt.Fprintf(out, "Evaluation %s\n", verdict.ID)
	fmt.Fprintln(out, strings.Repeat("=", 60))
	fmt.Fprintln(out, verdict.OverallAssessment)
	fmt.Fprintln(out)

	if v := verdict.Verification; v != nil {
		fmt.Fprintf(out, "Claim verification: %d claims, average score %.1f/5\n", v.NoClaims, v.AverageScore)
		for i, claim := range v.Claims {
			fmt.Fprintf(out, "  %2d. [%d/5] %s\n", i+1, claim.Score, claim.Text)
		}
		if v.Err != "" {
			fmt.Fprintf(out, "  error: %s\n", v.Err)
		}
		fmt.Fprintln(out)
	}

	if r := verdict.Review; r != nil {
		fmt.Fprintf(out, "Review panel: %d reviewers\n", len(r.Reviewers))
		for _, reviewer := range r.Reviewers {
			fmt.Fprintf(out, "  Reviewer %d (%s): %s\n", reviewer.ID, reviewer.Specialisation, reviewer.Review)
		}
		if r.Publishability != "" {
			fmt.Fprintf(out, "  Panel verdict: %s\n", r.Publishability)
		}
		if r.Suggestions != "" {
			fmt.Fprintf(out, "  Suggestions: %s\n", r.Suggestions)
		}
		if r.Err != "" {
			fmt.Fprintf(out, "  error: %s\n", r.Err)
		}
		fmt.Fprintln(out)
	}

	fmt.Fprintf(out, "Token usage: %d input, %d output, %d total\n",
		verdict.TokenUsage.InputTokens, verdict.TokenUsage.OutputTokens, verdict.TokenUsage.TotalTokens)
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the argus version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "argus", version)
		},
	}
}
