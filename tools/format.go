package tools

import (
	"fmt"
	"strings"

	"github.com/lexandro/valyu-mcp/client"
)

const NoResultsText = "No results found."

// FormatResults renders results as Title/Content/URL blocks separated by a
// blank line, keeping the API's ranking order. Content falls back to the
// description when a result carries no content.
func FormatResults(results []client.Result) string {
	if len(results) == 0 {
		return NoResultsText
	}

	var builder strings.Builder
	for i, result := range results {
		if i > 0 {
			builder.WriteString("\n\n")
		}
		content := result.Content
		if content == "" {
			content = result.Description
		}
		fmt.Fprintf(&builder, "Title: %s\nContent: %s\nURL: %s", result.Title, content, result.URL)
	}
	return builder.String()
}
