package ingestion

import (
	"regexp"
	"strings"
)

var headerPattern = regexp.MustCompile(`(?m)^(#+)\s+(.+)$`)

// sectionInfo summarizes a chunk for storage metadata: the markdown
// headers it contains plus basic size stats.
func sectionInfo(chunk string) map[string]any {
	matches := headerPattern.FindAllStringSubmatch(chunk, -1)
	headers := make([]string, 0, len(matches))
	for _, m := range matches {
		headers = append(headers, m[1]+" "+m[2])
	}
	return map[string]any{
		"headers":    strings.Join(headers, "; "),
		"char_count": len(chunk),
		"word_count": len(strings.Fields(chunk)),
	}
}
