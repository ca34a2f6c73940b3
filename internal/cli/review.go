package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sprite-ai/crosscheck/internal/analyzer"
	"github.com/sprite-ai/crosscheck/internal/diffparse"
	"github.com/sprite-ai/crosscheck/internal/engine"
	"github.com/sprite-ai/crosscheck/internal/policy"
	"github.com/sprite-ai/crosscheck/internal/tui"
)

var reviewCmd = &cobra.Command{
	Use:   "review [commit-range]",
	Short: "Review a diff and report merged findings",
	Long: `Review a diff in the selected analysis mode. By default, reviews the
given commit range of the current repository; pass "-" to read a raw
unified diff from stdin.

Examples:
  crosscheck review main...HEAD                # hybrid review of a branch
  crosscheck review --mode static HEAD~1..HEAD
  git diff | crosscheck review -               # pipe any diff
  crosscheck review -i main...HEAD             # browse results in the TUI`,
	Args: cobra.MaximumNArgs(1),
	RunE: runReview,
}

func init() {
	reviewCmd.Flags().StringP("mode", "m", "hybrid", "analysis mode: static, model, or hybrid")
	reviewCmd.Flags().String("policy", "", "path to a YAML policy file")
	reviewCmd.Flags().String("provider", "anthropic", "model provider: anthropic or gemini")
	reviewCmd.Flags().String("model", "", "model name (provider default if empty)")
	reviewCmd.Flags().StringSlice("scanner", nil, "external scanners to run, e.g. semgrep,bandit")
	reviewCmd.Flags().IntP("context", "C", 3, "lines of context around changes")
	reviewCmd.Flags().BoolP("interactive", "i", false, "browse results in the TUI")
	reviewCmd.Flags().Bool("json", false, "print the full result as JSON")
}

func runReview(cmd *cobra.Command, args []string) error {
	log := newLogger(cmd)

	modeStr, _ := cmd.Flags().GetString("mode")
	mode, err := engine.ParseMode(modeStr)
	if err != nil {
		return err
	}

	cfg := policy.Default()
	if path, _ := cmd.Flags().GetString("policy"); path != "" {
		cfg, err = policy.Load(path)
		if err != nil {
			return err
		}
	}

	contextLines, _ := cmd.Flags().GetInt("context")
	raw, repoDir, err := getDiff(args, contextLines)
	if err != nil {
		return err
	}
	if strings.TrimSpace(raw) == "" {
		fmt.Println("No changes to review.")
		return nil
	}

	cs, err := diffparse.Parse(raw)
	if err != nil {
		return err
	}

	static := analyzer.NewStatic(log, buildScanners(cmd, repoDir)...)

	var model analyzer.Analyzer
	if mode != engine.ModeStaticOnly {
		client, err := buildClient(cmd)
		if err != nil {
			return err
		}
		model = analyzer.NewModel(client, log)
	}

	eng, err := engine.New(static, model, cfg, engine.Options{}, log)
	if err != nil {
		return err
	}

	result, err := eng.Analyze(cmd.Context(), cs, mode)
	if err != nil {
		return err
	}

	if interactive, _ := cmd.Flags().GetBool("interactive"); interactive {
		return tui.Run(result)
	}
	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}
	return printResult(result)
}

func buildScanners(cmd *cobra.Command, repoDir string) []analyzer.Scanner {
	scanners := analyzer.BuiltinScanners()
	names, _ := cmd.Flags().GetStringSlice("scanner")
	for _, name := range names {
		switch name {
		case "semgrep":
			scanners = append(scanners, &analyzer.ExecScanner{
				Tool:   "semgrep",
				Args:   []string{"--config=p/security-audit", "--json", "--quiet"},
				Dir:    repoDir,
				Format: "semgrep",
			})
		case "bandit":
			scanners = append(scanners, &analyzer.ExecScanner{
				Tool:   "bandit",
				Args:   []string{"-r", "-f", "json", "-q"},
				Dir:    repoDir,
				Format: "bandit",
			})
		default:
			fmt.Fprintf(os.Stderr, "Warning: unknown scanner %q skipped\n", name)
		}
	}
	return scanners
}

func buildClient(cmd *cobra.Command) (analyzer.Client, error) {
	provider, _ := cmd.Flags().GetString("provider")
	modelName, _ := cmd.Flags().GetString("model")
	switch provider {
	case "anthropic":
		return analyzer.NewAnthropicClient(modelName)
	case "gemini", "google":
		return analyzer.NewGeminiClient(cmd.Context(), modelName)
	default:
		return nil, fmt.Errorf("unknown provider: %s", provider)
	}
}

func printResult(result *engine.Result) error {
	s := result.Summarize()
	fmt.Printf("%s review: %d finding(s) (%d high, %d medium, %d low)\n\n",
		strings.ToLower(string(result.Mode)), len(result.Findings), s.High, s.Medium, s.Low)

	for _, fr := range result.Findings {
		f := fr.Finding
		fmt.Printf("  [%s] %s:%d (%s, confidence %.2f)\n", f.Severity, f.File, f.Line, f.Category, f.Confidence)
		fmt.Printf("      %s\n", f.Message)
		fmt.Printf("      disposition: %s", fr.Disposition)
		if fr.PatchReason != "" {
			fmt.Printf(" (%s: %s)", fr.PatchStatus, fr.PatchReason)
		}
		fmt.Println()
		if fr.Patch != nil && fr.PatchStatus == engine.PatchVerified {
			for _, line := range strings.Split(strings.TrimRight(fr.Patch.Preview(), "\n"), "\n") {
				fmt.Printf("      %s\n", line)
			}
		}
		fmt.Println()
	}

	if len(result.Diagnostics) > 0 {
		fmt.Println("Diagnostics:")
		for _, d := range result.Diagnostics {
			fmt.Printf("  %s: %s\n", d.Stage, d.Message)
		}
	}
	return nil
}

// getDiff resolves the diff text and the repository root, reading from
// stdin when "-" is passed.
func getDiff(args []string, contextLines int) (string, string, error) {
	if len(args) == 1 && args[0] == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", "", fmt.Errorf("reading stdin: %w", err)
		}
		return string(data), "", nil
	}

	repoDir, err := gitRepoRoot()
	if err != nil {
		return "", "", fmt.Errorf("not in a git repository (or git not installed): %w", err)
	}

	commitRange := "HEAD~1..HEAD"
	if len(args) == 1 {
		commitRange = args[0]
	}
	raw, err := diffparse.GitDiffRange(repoDir, commitRange, contextLines)
	return raw, repoDir, err
}

func gitRepoRoot() (string, error) {
	cmd := exec.Command("git", "rev-parse", "--show-toplevel")
	out, err := cmd.Output()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}
