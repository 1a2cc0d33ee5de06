package git

import "strings"

// Commit types used for store changes.
const (
	CommitTypeFeat  = "feat"
	CommitTypeChore = "chore"
)

// Footer marks commits produced by tillage.
const Footer = "Changed-by: tillage"

// FormatMessage builds a Conventional Commit message:
//
//	<type>(<scope>): <subject>
//
//	<body>
//
//	Changed-by: tillage
func FormatMessage(ctype, scope, subject, body string) string {
	var sb strings.Builder

	if ctype == "" {
		ctype = CommitTypeChore
	}
	sb.WriteString(ctype)
	if scope != "" {
		sb.WriteString("(" + scope + ")")
	}
	sb.WriteString(": ")
	sb.WriteString(strings.TrimSpace(subject))

	if body = strings.TrimSpace(body); body != "" {
		sb.WriteString("\n\n")
		sb.WriteString(body)
	}

	sb.WriteString("\n\n")
	sb.WriteString(Footer)
	return sb.String()
}
