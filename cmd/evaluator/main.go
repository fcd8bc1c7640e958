// Command evaluator scores previously stored submissions: it re-fetches the
// published artifacts, runs the license, README and liveness checks and
// writes the results to a JSON file.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"appforge/internal/common/config"
	"appforge/internal/common/httpclient"
	"appforge/internal/common/logger"
	"appforge/internal/evaluate"
	"appforge/internal/githost"
	"appforge/internal/models"
	"appforge/internal/store"
)

func main() {
	root := &cobra.Command{
		Use:           "evaluator",
		Short:         "Score stored submissions against their published artifacts",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	var resultsFile string
	runCmd := &cobra.Command{
		Use:   "run [key...]",
		Short: "Evaluate stored submissions (all when no key is given)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEvaluation(cmd.Context(), resultsFile, args)
		},
	}
	runCmd.Flags().StringVarP(&resultsFile, "out", "o", "", "results file (defaults to the configured path)")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "Print stored submissions",
		RunE: func(cmd *cobra.Command, args []string) error {
			return listSubmissions(cmd.Context())
		},
	}

	root.AddCommand(runCmd, listCmd)

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "evaluator: %v\n", err)
		os.Exit(1)
	}
}

func runEvaluation(ctx context.Context, resultsFile string, keys []string) error {
	cfg, st, log, err := setup()
	if err != nil {
		return err
	}
	defer st.Close()

	subs, err := selectSubmissions(ctx, st, keys)
	if err != nil {
		return err
	}
	if len(subs) == 0 {
		fmt.Println("no submissions to evaluate")
		return nil
	}

	host := githost.NewClient(cfg.GitHub.APIBaseURL, cfg.GitHub.Token, cfg.GitHub.Timeout, log)

	var feedback evaluate.Feedbacker
	if cfg.Generator.Provider == "openai" && cfg.Generator.APIKey != "" {
		baseURL := cfg.Generator.BaseURL
		if baseURL == "" {
			baseURL = "https://api.openai.com"
		}
		feedback = evaluate.NewChatFeedbacker(baseURL, cfg.Generator.APIKey, cfg.Generator.Model, cfg.Generator.Timeout)
	}

	evaluator := evaluate.New(host, httpclient.NewClient(cfg.Evaluator.Timeout), feedback, cfg.Evaluator.ReadmeMinLength, log)

	results := make([]*models.EvaluationResult, 0, len(subs))
	for _, sub := range subs {
		results = append(results, evaluator.Evaluate(ctx, sub))
	}

	if resultsFile == "" {
		resultsFile = cfg.Evaluator.ResultsFile
	}
	data, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return fmt.Errorf("encode results: %w", err)
	}
	if err := os.WriteFile(resultsFile, data, 0o644); err != nil {
		return fmt.Errorf("write results: %w", err)
	}

	passed := 0
	for _, r := range results {
		if r.License.OK && r.Readme.OK && r.Pages.OK {
			passed++
		}
	}
	fmt.Printf("evaluated %d submission(s), %d fully passing, results in %s\n", len(results), passed, resultsFile)
	return nil
}

func listSubmissions(ctx context.Context) error {
	_, st, _, err := setup()
	if err != nil {
		return err
	}
	defer st.Close()

	subs, err := st.List(ctx)
	if err != nil {
		return err
	}
	if len(subs) == 0 {
		fmt.Println("no submissions stored")
		return nil
	}
	for _, sub := range subs {
		fmt.Printf("%s\t%s\t%s\n", sub.Key(), sub.RepoURL, sub.SubmittedAt.Format("2006-01-02 15:04:05"))
	}
	return nil
}

func selectSubmissions(ctx context.Context, st store.Store, keys []string) ([]*models.Submission, error) {
	if len(keys) == 0 {
		return st.List(ctx)
	}
	var subs []*models.Submission
	for _, key := range keys {
		sub, err := st.Get(ctx, key)
		if err != nil {
			return nil, fmt.Errorf("submission %q: %w", key, err)
		}
		subs = append(subs, sub)
	}
	return subs, nil
}

func setup() (*config.Config, store.Store, logger.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("config: %w", err)
	}
	log := logger.NewStructured(cfg.Logging.Level, cfg.Logging.Format)

	var st store.Store
	switch cfg.Store.Backend {
	case "redis":
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Evaluator.Timeout)
		defer cancel()
		st, err = store.NewRedisStore(ctx, cfg.Store.Redis)
	case "postgres":
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Evaluator.Timeout)
		defer cancel()
		st, err = store.NewPostgresStore(ctx, cfg.Store.Postgres)
	default:
		st = store.NewMemoryStore()
	}
	if err != nil {
		return nil, nil, nil, fmt.Errorf("store: %w", err)
	}
	return cfg, st, log, nil
}
