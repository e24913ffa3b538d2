// Package formatter renders check issues as annotated source snippets.
package formatter

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"text/template"
	"unicode"

	"github.com/fatih/color"

	"github.com/gnoswap-labs/bitpat/internal"
	tt "github.com/gnoswap-labs/bitpat/internal/types"
)

const tabWidth = 8

var (
	errorStyle   = color.New(color.FgRed, color.Bold)
	warningStyle = color.New(color.FgHiYellow, color.Bold)
	ruleStyle    = color.New(color.FgYellow, color.Bold)
	fileStyle    = color.New(color.FgCyan, color.Bold)
	lineStyle    = color.New(color.FgHiBlue, color.Bold)
	messageStyle = color.New(color.FgRed, color.Bold)
	noteStyle    = color.New(color.FgGreen, color.Bold)
)

const issueTemplate = `{{header .Severity .Rule .Category .MaxLineNumWidth .Filename .StartLine .StartColumn}}
{{snippet .SnippetLines .StartLine .EndLine .MaxLineNumWidth .CommonIndent .Padding}}
{{underlineAndMessage .Message .Padding .StartLine .EndLine .StartColumn .EndColumn .SnippetLines .CommonIndent}}
{{- with .Note}}
{{note . $.Padding}}
{{- end}}

`

var issueTmpl = template.Must(template.New("issue").Funcs(template.FuncMap{
	"header":              header,
	"snippet":             codeSnippet,
	"underlineAndMessage": underlineAndMessage,
	"note":                note,
}).Parse(issueTemplate))

// GenerateFormattedIssue formats issues of one file into a human-readable
// string, each followed by a blank line.
func GenerateFormattedIssue(issues []tt.Issue, snippet *internal.SourceCode) string {
	var builder strings.Builder
	for _, issue := range issues {
		builder.WriteString(buildIssue(issue, snippet))
	}
	return builder.String()
}

type IssueData struct {
	Severity        tt.Severity
	Rule            string
	Category        string
	Filename        string
	Padding         string
	StartLine       int
	StartColumn     int
	EndLine         int
	EndColumn       int
	MaxLineNumWidth int
	Message         string
	Note            string
	SnippetLines    []string
	CommonIndent    string
}

func buildIssue(issue tt.Issue, snippet *internal.SourceCode) string {
	startLine := issue.Start.Line
	endLine := max(issue.End.Line, startLine)
	maxLineNumWidth := len(strconv.Itoa(endLine))

	var commonIndent string
	if isValidLineRange(startLine, endLine, snippet.Lines) {
		commonIndent = findCommonIndent(snippet.Lines[startLine-1 : endLine])
	}

	data := IssueData{
		Severity:        issue.Severity,
		Rule:            issue.Rule,
		Category:        issue.Category,
		Filename:        issue.Filename,
		Padding:         strings.Repeat(" ", maxLineNumWidth+1),
		StartLine:       startLine,
		StartColumn:     issue.Start.Column,
		EndLine:         endLine,
		EndColumn:       issue.End.Column,
		MaxLineNumWidth: maxLineNumWidth,
		Message:         issue.Message,
		Note:            issue.Note,
		SnippetLines:    snippet.Lines,
		CommonIndent:    commonIndent,
	}

	var buf bytes.Buffer
	if err := issueTmpl.Execute(&buf, data); err != nil {
		return fmt.Sprintf("Error formatting issue: %v\n", err)
	}
	return buf.String()
}

// e.g. "error: bitpat[invalid]\n --> decode.go:7:7"
func header(severity tt.Severity, rule, category string, maxLineNumWidth int, filename string, startLine, startColumn int) string {
	var s string
	switch severity {
	case tt.SeverityError:
		s = errorStyle.Sprintf("%s: ", severity)
	default:
		s = warningStyle.Sprintf("%s: ", severity)
	}

	if category != "" {
		rule += "[" + category + "]"
	}
	s += ruleStyle.Sprintf("%s\n", rule)
	s += lineStyle.Sprintf("%s--> ", strings.Repeat(" ", maxLineNumWidth))
	s += fileStyle.Sprintf("%s:%d:%d", filename, startLine, startColumn)
	return s
}

func codeSnippet(snippetLines []string, startLine, endLine, maxLineNumWidth int, commonIndent, padding string) string {
	s := lineStyle.Sprintf("%s|", padding)
	if !isValidLineRange(startLine, endLine, snippetLines) {
		return s
	}
	for i := startLine; i <= endLine; i++ {
		line := strings.TrimPrefix(snippetLines[i-1], commonIndent)
		s += "\n" + lineStyle.Sprintf("%*d | ", maxLineNumWidth, i) + line
	}
	return s
}

// underlineAndMessage marks the reported range under the last snippet line.
// A range spanning several lines is underlined on its last line only.
func underlineAndMessage(message, padding string, startLine, endLine, startColumn, endColumn int, snippetLines []string, commonIndent string) string {
	if !isValidLineRange(startLine, endLine, snippetLines) {
		return lineStyle.Sprintf("%s= ", padding) + messageStyle.Sprint(message)
	}

	indentWidth := calculateVisualColumn(commonIndent, len(commonIndent)+1)

	underlineStart := 0
	if startLine == endLine {
		underlineStart = max(calculateVisualColumn(snippetLines[startLine-1], startColumn)-indentWidth, 0)
	}
	underlineEnd := calculateVisualColumn(snippetLines[endLine-1], endColumn) - indentWidth
	underlineLength := max(underlineEnd-underlineStart, 1)

	s := lineStyle.Sprintf("%s| ", padding)
	s += strings.Repeat(" ", underlineStart)
	s += messageStyle.Sprintf("%s\n", strings.Repeat("~", underlineLength))
	s += lineStyle.Sprintf("%s= ", padding)
	s += messageStyle.Sprint(message)
	return s
}

func note(note, padding string) string {
	return lineStyle.Sprintf("%s= ", padding) + noteStyle.Sprint("note: ") + note
}

func isValidLineRange(startLine, endLine int, snippetLines []string) bool {
	return startLine > 0 &&
		startLine <= endLine &&
		endLine <= len(snippetLines)
}

// calculateVisualColumn returns the display width of line before the
// 1-based byte column, expanding tabs.
func calculateVisualColumn(line string, column int) int {
	visualColumn := 0
	for i, ch := range line {
		if i+1 >= column {
			break
		}
		if ch == '\t' {
			visualColumn += tabWidth - (visualColumn % tabWidth)
		} else {
			visualColumn++
		}
	}
	return visualColumn
}

// findCommonIndent returns the leading whitespace shared by every non-blank
// line.
func findCommonIndent(lines []string) string {
	var common []rune
	first := true
	for _, line := range lines {
		trimmed := strings.TrimLeftFunc(line, unicode.IsSpace)
		if trimmed == "" {
			continue
		}
		indent := []rune(line[:len(line)-len(trimmed)])
		if first {
			common, first = indent, false
			continue
		}
		common = commonPrefix(common, indent)
		if len(common) == 0 {
			break
		}
	}
	return string(common)
}

func commonPrefix(a, b []rune) []rune {
	n := min(len(a), len(b))
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			return a[:i]
		}
	}
	return a[:n]
}
