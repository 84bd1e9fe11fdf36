// Message construction for the notification dispatcher.
//
// Two finalization scenarios exist, selected purely by the investigation's
// outcome flags: "upheld" (any flag set) and "dismissed" (none set). Both
// share the same request metadata block; the upheld variant additionally
// lists which flags are active. Redirect messages carry the old and new lab.
package notify

import (
	"fmt"
	"html"
	"strings"

	"github.com/JoaoPizoli/SatMaza/internal/domain"
)

// labLabel renders a lab enum value for human consumption.
func labLabel(l domain.Lab) string {
	if l == domain.LabWaterBase {
		return "Water Base"
	}
	return "Solvent Base"
}

// requesterLabel prefers the representative's display name, then its code,
// then the raw id.
func requesterLabel(req *domain.Request) string {
	if req.Requester != nil {
		if req.Requester.Name != "" {
			return req.Requester.Name
		}
		if req.Requester.Code != "" {
			return req.Requester.Code
		}
	}
	return fmt.Sprintf("#%d", req.RequesterID)
}

// lotsLine formats the owned lots as "lot (exp. date), ..." or a dash when
// the request has none.
func lotsLine(req *domain.Request) string {
	if len(req.Lots) == 0 {
		return "—"
	}
	parts := make([]string, 0, len(req.Lots))
	for _, l := range req.Lots {
		parts = append(parts, fmt.Sprintf("%s (exp. %s)", l.Lot, l.Expiry))
	}
	return strings.Join(parts, ", ")
}

// activeFlags lists the names of the outcome flags that are set on the
// investigation, in a fixed order.
func activeFlags(inv *domain.Investigation) []string {
	isTrue := func(b *bool) bool { return b != nil && *b }
	var out []string
	if isTrue(inv.ComplaintUpheld) {
		out = append(out, "Complaint Upheld")
	}
	if isTrue(inv.Replacement) {
		out = append(out, "Replacement")
	}
	if isTrue(inv.LotRecall) {
		out = append(out, "Lot Recall")
	}
	return out
}

// metadataTable renders the shared request metadata block.
func metadataTable(req *domain.Request) string {
	row := func(label, value string) string {
		return fmt.Sprintf(
			`<tr><td style="padding: 4px 12px 4px 0; color: #666;">%s:</td><td style="padding: 4px 0;"><strong>%s</strong></td></tr>`,
			label, html.EscapeString(value))
	}
	var b strings.Builder
	b.WriteString(`<table style="border-collapse: collapse; margin: 16px 0; font-size: 14px;">`)
	b.WriteString(row("Representative", requesterLabel(req)))
	b.WriteString(row("Client", req.Client))
	b.WriteString(row("City", req.City))
	b.WriteString(row("Product", req.Product))
	b.WriteString(row("Lot(s)", lotsLine(req)))
	b.WriteString(row("Quantity", fmt.Sprintf("%d", req.Quantity)))
	b.WriteString(`</table>`)
	return b.String()
}

// buildUpheldHTML is the finalization message for the upheld scenario.
func buildUpheldHTML(req *domain.Request, inv *domain.Investigation) string {
	flags := strings.Join(activeFlags(inv), ", ")
	return fmt.Sprintf(`
  <div style="font-family: Arial, sans-serif; font-size: 14px; color: #333; line-height: 1.6;">
    <p>Dear all,</p>
    <p>Attached is the report for request <strong>%s</strong>, finalized with
    the following outcomes: <strong>%s</strong>.</p>
    %s
    <p>See the attached PDF report for details.</p>
    <br/>
    <p>Regards,<br/>SAT System</p>
  </div>`, html.EscapeString(req.Code), html.EscapeString(flags), metadataTable(req))
}

// buildDismissedHTML is the finalization message when no outcome flag is set.
func buildDismissedHTML(req *domain.Request) string {
	return fmt.Sprintf(`
  <div style="font-family: Arial, sans-serif; font-size: 14px; color: #333; line-height: 1.6;">
    <p>Dear all,</p>
    <p>Attached is the report for request <strong>%s</strong>, finalized with
    no occurrences (complaint dismissed, no replacement, no lot recall).</p>
    %s
    <p>See the attached PDF report for details.</p>
    <br/>
    <p>Regards,<br/>SAT System</p>
  </div>`, html.EscapeString(req.Code), metadataTable(req))
}

// buildRedirectHTML is the message sent when a request is rerouted between
// the two labs.
func buildRedirectHTML(req *domain.Request, previous, current domain.Lab) string {
	return fmt.Sprintf(`
  <div style="font-family: Arial, sans-serif; font-size: 14px; color: #333; line-height: 1.6;">
    <h3>Request Redirected</h3>
    <p>Request <strong>%s</strong> was redirected from <strong>%s</strong>
    to <strong>%s</strong>.</p>
    %s
    <p><strong>Complaint:</strong> %s</p>
  </div>`,
		html.EscapeString(req.Code), labLabel(previous), labLabel(current),
		metadataTable(req), html.EscapeString(req.Complaint))
}
