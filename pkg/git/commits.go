package git

import "strings"

// Footer marks commits written by the note store.
const Footer = "Recorded-by: studydesk"

// Conventional commit types used for data snapshots.
const (
	CommitTypeFeat  = "feat"
	CommitTypeFix   = "fix"
	CommitTypeChore = "chore"
)

// FormatCommitMessage builds a conventional commit message:
//
//	<type>(<scope>): <subject>
//
//	Recorded-by: studydesk
func FormatCommitMessage(ctype, scope, subject string) string {
	if ctype == "" {
		ctype = CommitTypeChore
	}
	var sb strings.Builder
	sb.WriteString(ctype)
	if scope != "" {
		sb.WriteString("(" + scope + ")")
	}
	sb.WriteString(": ")
	sb.WriteString(subject)
	sb.WriteString("\n\n")
	sb.WriteString(Footer)
	return sb.String()
}

// AppendFooter adds the footer to a free-form message unless it is already there.
func AppendFooter(msg string) string {
	if strings.Contains(msg, Footer) {
		return msg
	}
	msg = strings.TrimRight(msg, "\n")
	return msg + "\n\n" + Footer
}
