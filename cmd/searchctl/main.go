package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

var (
	version = "dev"

	// Global flags
	serverURL string
	asJSON    bool

	// Search command flags
	language        string
	initialLimit    int
	topN            int
	noRerank        bool
	noValidate      bool
	includeScores   bool
	filterTags      []string
	weightKeyword   float64
	weightVector    float64
	rerankThreshold float64
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "searchctl",
	Short:   "Query the retrieval orchestrator",
	Version: version,
}

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Run a hybrid search",
	Long: `Run a two-stage hybrid search against a running orchestrator.

Examples:
  # Basic search
  searchctl search "какие документы были в августе"

  # Skip reranking and show raw fused order with scores
  searchctl search --no-rerank --scores "monthly report"

  # Filter by tags and widen the candidate pool
  searchctl search --tags finance,legal --limit 50 "квартальный отчёт"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show model state and pipeline defaults",
	RunE:  showInfo,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", envOr("ORCHESTRATOR_URL", "http://localhost:9020"), "orchestrator base URL")
	rootCmd.PersistentFlags().BoolVar(&asJSON, "json", false, "print raw JSON responses")

	searchCmd.Flags().StringVar(&language, "language", "", "expected query language (ru, en, ja, all)")
	searchCmd.Flags().IntVar(&initialLimit, "limit", 0, "stage-1 candidate limit (0 = server default)")
	searchCmd.Flags().IntVar(&topN, "top-n", 0, "number of results (0 = server default)")
	searchCmd.Flags().BoolVar(&noRerank, "no-rerank", false, "return the fused order without reranking")
	searchCmd.Flags().BoolVar(&noValidate, "no-validate", false, "skip query language validation")
	searchCmd.Flags().BoolVar(&includeScores, "scores", false, "include per-stage scores and timings")
	searchCmd.Flags().StringSliceVar(&filterTags, "tags", nil, "only return chunks carrying one of these tags")
	searchCmd.Flags().Float64Var(&weightKeyword, "weight-keyword", 0, "keyword branch fusion weight (0 = server default)")
	searchCmd.Flags().Float64Var(&weightVector, "weight-vector", 0, "vector branch fusion weight (0 = server default)")
	searchCmd.Flags().Float64Var(&rerankThreshold, "threshold", 0, "drop results scoring below this (0 = server default)")

	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(infoCmd)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

type searchResult struct {
	ID             string         `json:"id"`
	ContentSnippet string         `json:"content_snippet"`
	Score          float64        `json:"score"`
	SourceBranches []string       `json:"source_branches"`
	Metadata       map[string]any `json:"metadata"`
}

type searchResponse struct {
	Results     []searchResult `json:"results"`
	Diagnostics struct {
		Stage1CandidateCount int    `json:"stage1_candidate_count"`
		Reranked             bool   `json:"reranked"`
		Stage1TimeMs         *int64 `json:"stage1_time_ms"`
		Stage2TimeMs         *int64 `json:"stage2_time_ms"`
	} `json:"diagnostics"`
}

type errorResponse struct {
	Error struct {
		Kind    string `json:"kind"`
		Message string `json:"message"`
		Hint    string `json:"hint"`
	} `json:"error"`
}

func runSearch(cmd *cobra.Command, args []string) error {
	query := strings.Join(args, " ")

	payload := map[string]any{"query": query}
	if language != "" {
		payload["expected_language"] = language
	}
	if initialLimit > 0 {
		payload["initial_limit"] = initialLimit
	}
	if topN > 0 {
		payload["rerank_top_n"] = topN
	}
	if noRerank {
		payload["enable_rerank"] = false
	}
	if noValidate {
		payload["validate_language"] = false
	}
	if includeScores {
		payload["include_scores"] = true
	}
	if len(filterTags) > 0 {
		payload["filter_tags"] = filterTags
	}
	if weightKeyword > 0 || weightVector > 0 {
		weights := map[string]float64{}
		if weightKeyword > 0 {
			weights["keyword"] = weightKeyword
		}
		if weightVector > 0 {
			weights["vector"] = weightVector
		}
		payload["branch_weights"] = weights
	}
	if rerankThreshold > 0 {
		payload["rerank_threshold"] = rerankThreshold
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	client := &http.Client{Timeout: 60 * time.Second}
	resp, err := client.Post(serverURL+"/v1/search", "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var errResp errorResponse
		if jsonErr := json.Unmarshal(raw, &errResp); jsonErr == nil && errResp.Error.Kind != "" {
			fmt.Fprintf(os.Stderr, "Error (%s): %s\n", errResp.Error.Kind, errResp.Error.Message)
			if errResp.Error.Hint != "" {
				fmt.Fprintf(os.Stderr, "Hint: %s\n", errResp.Error.Hint)
			}
			os.Exit(1)
		}
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, string(raw))
	}

	if asJSON {
		fmt.Println(string(raw))
		return nil
	}

	var result searchResponse
	if err := json.Unmarshal(raw, &result); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	if len(result.Results) == 0 {
		fmt.Println("No results.")
		return nil
	}

	for i, r := range result.Results {
		fmt.Printf("%d. [%.4f] %s (%s)\n", i+1, r.Score, r.ID, strings.Join(r.SourceBranches, "+"))
		if title, ok := r.Metadata["title"].(string); ok && title != "" {
			fmt.Printf("   %s\n", title)
		}
		fmt.Printf("   %s\n", r.ContentSnippet)
	}

	fmt.Printf("\n%d stage-1 candidates, reranked=%t", result.Diagnostics.Stage1CandidateCount, result.Diagnostics.Reranked)
	if result.Diagnostics.Stage1TimeMs != nil {
		fmt.Printf(", stage1=%dms", *result.Diagnostics.Stage1TimeMs)
	}
	if result.Diagnostics.Stage2TimeMs != nil {
		fmt.Printf(", stage2=%dms", *result.Diagnostics.Stage2TimeMs)
	}
	fmt.Println()
	return nil
}

func showInfo(cmd *cobra.Command, args []string) error {
	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Get(serverURL + "/v1/search/info")
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, string(raw))
	}

	if asJSON {
		fmt.Println(string(raw))
		return nil
	}

	var info map[string]any
	if err := json.Unmarshal(raw, &info); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	fmt.Printf("Rerank enabled:    %v\n", info["rerank_enabled"])
	fmt.Printf("Model state:       %v\n", info["model_state"])
	if name, ok := info["model_name"].(string); ok && name != "" {
		fmt.Printf("Model:             %s\n", name)
	}
	fmt.Printf("Score calls:       %v\n", info["score_calls"])
	fmt.Printf("Avg score latency: %vms\n", info["avg_score_ms"])
	fmt.Printf("Initial limit:     %v\n", info["initial_limit"])
	fmt.Printf("Fusion weights:    keyword=%v vector=%v\n", info["weight_keyword"], info["weight_vector"])
	fmt.Printf("Default language:  %v\n", info["default_language"])
	return nil
}
