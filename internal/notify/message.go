package notify

import (
	"fmt"
	"html"
	"strings"

	"garageleadly/internal/contractors"
	"garageleadly/internal/leads"
	"garageleadly/pkg/phone"
)

const emailSubject = "New Lead - GarageLeadly"

// Notification is one lead delivered to one contractor.
type Notification struct {
	Lead       leads.Lead
	Contractor contractors.Contractor
}

// RenderText is the full lead summary used for email bodies.
func RenderText(n Notification) string {
	l := n.Lead
	var b strings.Builder
	b.WriteString("NEW LEAD - GarageLeadly\n\n")
	fmt.Fprintf(&b, "Name: %s\n", l.CustomerName)
	fmt.Fprintf(&b, "Phone: %s\n", phone.Display(l.Phone))
	fmt.Fprintf(&b, "Email: %s\n\n", orDash(l.Email))
	fmt.Fprintf(&b, "Address: %s\n", orDash(l.Address))
	fmt.Fprintf(&b, "City: %s\n", orDash(l.City))
	fmt.Fprintf(&b, "County: %s\n", l.County)
	fmt.Fprintf(&b, "ZIP: %s\n\n", orDash(l.Zip))
	fmt.Fprintf(&b, "Type: %s\n", orDash(l.JobType))
	fmt.Fprintf(&b, "Issue: %s\n\n", orDash(l.Issue))
	b.WriteString("CALL NOW - They're expecting your call!")
	return b.String()
}

// RenderHTML is RenderText escaped with line breaks kept.
func RenderHTML(n Notification) string {
	return strings.ReplaceAll(html.EscapeString(RenderText(n)), "\n", "<br>")
}

// RenderSMS keeps the message within a couple of SMS segments.
func RenderSMS(n Notification) string {
	l := n.Lead
	parts := []string{"NEW LEAD - GarageLeadly", l.CustomerName, phone.Display(l.Phone)}
	if where := strings.TrimSpace(strings.Join(nonEmpty(l.City, l.County), ", ")); where != "" {
		parts = append(parts, where)
	}
	if l.JobType != "" {
		parts = append(parts, l.JobType)
	}
	parts = append(parts, "CALL NOW")
	return strings.Join(parts, " | ")
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}

func nonEmpty(vals ...string) []string {
	out := make([]string, 0, len(vals))
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			out = append(out, v)
		}
	}
	return out
}
