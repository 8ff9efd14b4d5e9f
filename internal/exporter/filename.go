package exporter

import (
	"fmt"
	"strings"

	"cxfeedback/internal/feedback"
)

// FileName builds feedback-{center}-{start}_to_{end}.{ext}. The center is
// made safe for file systems: whitespace runs become "-" and path or shell
// metacharacters are dropped.
func FileName(center string, start, end feedback.Date, ext string) string {
	return fmt.Sprintf("feedback-%s-%s_to_%s.%s", sanitizeCenter(center), start, end, strings.TrimPrefix(ext, "."))
}

func sanitizeCenter(center string) string {
	name := strings.Join(strings.Fields(center), "-")
	name = strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return -1
		}
		return r
	}, name)
	if name == "" {
		return "all"
	}
	return name
}
