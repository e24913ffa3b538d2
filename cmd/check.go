package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gnoswap-labs/bitpat/bitpat"
	"github.com/gnoswap-labs/bitpat/formatter"
	"github.com/gnoswap-labs/bitpat/internal"
	tt "github.com/gnoswap-labs/bitpat/internal/types"
)

var (
	checkJsonOutput bool
	outPath         string
)

var checkCmd = &cobra.Command{
	Use:   "check [paths...]",
	Short: "Report switches that cannot be rewritten and misplaced directives",
	Run: func(cmd *cobra.Command, args []string) {
		if len(args) == 0 {
			fmt.Println("error: Please provide file or directory paths")
			os.Exit(1)
		}

		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		engine, err := bitpat.New(loadConfig(), logger)
		if err != nil {
			logger.Fatal("Failed to initialize engine", zap.Error(err))
		}

		issues, err := runCheck(ctx, logger, engine, args)
		if err != nil {
			logger.Error("Error processing files", zap.Error(err))
			os.Exit(1)
		}

		if err := printIssues(cmd.OutOrStdout(), logger, issues, checkJsonOutput, outPath); err != nil {
			logger.Error("Error printing issues", zap.Error(err))
			os.Exit(1)
		}

		if hasErrors(issues) {
			os.Exit(1)
		}
	},
}

func init() {
	checkCmd.Flags().BoolVar(&checkJsonOutput, "json", false, "Output issues in JSON format")
	checkCmd.Flags().StringVarP(&outPath, "output", "o", "", "Output path (when using JSON)")
}

func runCheck(ctx context.Context, logger *zap.Logger, engine bitpat.Engine, paths []string) ([]tt.Issue, error) {
	perFile, err := bitpat.ProcessFiles(ctx, logger, engine, paths, bitpat.CheckFile)
	var issues []tt.Issue
	for _, fileIssues := range perFile {
		issues = append(issues, fileIssues...)
	}
	return issues, err
}

func hasErrors(issues []tt.Issue) bool {
	for _, issue := range issues {
		if issue.Severity == tt.SeverityError {
			return true
		}
	}
	return false
}

func printIssues(w io.Writer, logger *zap.Logger, issues []tt.Issue, isJson bool, jsonOutput string) error {
	issuesByFile := make(map[string][]tt.Issue)
	for _, issue := range issues {
		issuesByFile[issue.Filename] = append(issuesByFile[issue.Filename], issue)
	}

	if isJson {
		d, err := json.MarshalIndent(issuesByFile, "", "  ")
		if err != nil {
			return fmt.Errorf("marshalling issues to JSON: %w", err)
		}
		if jsonOutput == "" {
			_, err = fmt.Fprintln(w, string(d))
			return err
		}
		return os.WriteFile(jsonOutput, d, 0o644)
	}

	sortedFiles := make([]string, 0, len(issuesByFile))
	for filename := range issuesByFile {
		sortedFiles = append(sortedFiles, filename)
	}
	sort.Strings(sortedFiles)

	for _, filename := range sortedFiles {
		sourceCode, err := internal.ReadSourceCode(filename)
		if err != nil {
			logger.Error("Error reading source file", zap.String("file", filename), zap.Error(err))
			continue
		}
		fmt.Fprint(w, formatter.GenerateFormattedIssue(issuesByFile[filename], sourceCode))
	}
	return nil
}
