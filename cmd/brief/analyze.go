package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/rohankatakam/sprintbrief/internal/brief"
	"github.com/rohankatakam/sprintbrief/internal/config"
	"github.com/rohankatakam/sprintbrief/internal/output"
)

var (
	analyzeLogins      []string
	analyzeSince       string
	analyzeUntil       string
	analyzeFormat      string
	analyzeConcurrency int
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <repo>",
	Short: "Write a sprint brief for one or more contributors",
	Long: `Collect pull requests, commits and reviews for each --login inside the window
and print a sprint brief per contributor.

<repo> is a GitHub URL (https://github.com/owner/name), an SSH remote or owner/name.

Examples:
  brief analyze acme/api --login octo
  brief analyze https://github.com/acme/api --login octo --login hubot --since 2024-05-01 --until 2024-05-31
  brief analyze acme/api --login octo --format json`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().StringSliceVarP(&analyzeLogins, "login", "l", nil, "contributor login (repeatable)")
	analyzeCmd.Flags().StringVar(&analyzeSince, "since", "", "window start, ISO-8601 (default: 30 days before --until)")
	analyzeCmd.Flags().StringVar(&analyzeUntil, "until", "", "window end, ISO-8601 (default: now)")
	analyzeCmd.Flags().StringVarP(&analyzeFormat, "format", "f", "", "output format: markdown, quiet, json, yaml (default: $BRIEF_OUTPUT or markdown)")
	analyzeCmd.Flags().IntVar(&analyzeConcurrency, "concurrency", 4, "contributors analyzed in parallel")
	_ = analyzeCmd.MarkFlagRequired("login")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	format := output.GetDefaultFormat()
	if analyzeFormat != "" {
		f, err := output.ParseFormat(analyzeFormat)
		if err != nil {
			return err
		}
		format = f
	}

	svc, err := newService(ctx, config.ValidationContextAnalyze)
	if err != nil {
		return err
	}

	rendered, err := analyzeAll(ctx, svc, args[0], analyzeLogins, output.NewFormatter(format))
	written := 0
	for _, r := range rendered {
		if r.Len() == 0 {
			continue
		}
		if written > 0 && format == output.FormatMarkdown {
			fmt.Fprint(os.Stdout, "\n---\n\n")
		}
		os.Stdout.Write(r.Bytes())
		written++
	}
	return err
}

// analyzeAll runs one independent flow per login and returns the rendered
// reports in login order. A failed login does not cancel the others.
func analyzeAll(ctx context.Context, svc *brief.Service, repoURL string, logins []string, formatter output.Formatter) ([]*bytes.Buffer, error) {
	rendered := make([]*bytes.Buffer, len(logins))
	failures := make([]error, len(logins))

	var g errgroup.Group
	g.SetLimit(max(analyzeConcurrency, 1))

	for i, login := range logins {
		rendered[i] = &bytes.Buffer{}
		g.Go(func() error {
			log := logger.WithField("login", login)
			log.Info("Analyzing contributor")

			res, err := svc.Analyze(ctx, brief.Request{
				RepoURL: repoURL,
				Login:   login,
				Since:   analyzeSince,
				Until:   analyzeUntil,
			})
			if err != nil {
				log.WithError(err).Error("Analysis failed")
				failures[i] = fmt.Errorf("%s: %w", login, err)
				return nil
			}

			log.WithField("prs", len(res.Evidence.PRs)).
				WithField("commits", len(res.Evidence.Commits)).
				Debug("Brief ready")
			return formatter.Format(&output.Report{Evidence: res.Evidence, Brief: res.Brief}, rendered[i])
		})
	}

	if err := g.Wait(); err != nil {
		return rendered, err
	}

	var msgs []string
	for _, err := range failures {
		if err != nil {
			msgs = append(msgs, err.Error())
		}
	}
	if len(msgs) > 0 {
		return rendered, fmt.Errorf("%d of %d analyses failed:\n  %s", len(msgs), len(logins), strings.Join(msgs, "\n  "))
	}
	return rendered, nil
}
