package curl

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// DefectMarkdown renders a defect report for a curl reproduction.
func DefectMarkdown(description, command, output, requestID string) string {
	if strings.TrimSpace(description) == "" {
		description = "Unexpected response from the API."
	}

	lang := "text"
	body := strings.TrimSpace(output)
	if json.Valid([]byte(body)) {
		lang = "json"
		var pretty bytes.Buffer
		if err := json.Indent(&pretty, []byte(body), "", "  "); err == nil {
			body = pretty.String()
		}
	}

	var sb strings.Builder
	sb.WriteString("## 🐛 Defect\n\n")
	sb.WriteString(strings.TrimSpace(description))
	sb.WriteString("\n\n### Reproduction\n\n```bash\n")
	sb.WriteString(command)
	sb.WriteString("\n```\n\n### Response\n\n")
	fmt.Fprintf(&sb, "```%s\n%s\n```\n", lang, body)
	if requestID != "" {
		fmt.Fprintf(&sb, "\n> 📎 Request ID: `%s`\n", requestID)
	}
	return sb.String()
}
