package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"
	"github.com/portsleuth/portsleuth/internal/model"
)

// MarkdownWriter outputs reports in Markdown format.
// This format is designed for documentation and sharing.
//
// Design decision: We use the nao1215/markdown library for fluent markdown
// generation which provides:
// 1. Type-safe markdown generation
// 2. Support for tables, lists, and code blocks
// 3. GitHub-flavored markdown alerts
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the full report in Markdown format.
func (w *MarkdownWriter) Write(report *model.ScanReport) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, report)
	w.writeSummary(md, report)
	w.writeOpenPorts(md, report)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// WriteSummary outputs only the header and summary sections.
func (w *MarkdownWriter) WriteSummary(report *model.ScanReport) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, report)
	w.writeSummary(md, report)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// writeHeader writes the report header with scan information.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, report *model.ScanReport) {
	md.H1("Port Scan Report")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Target", "`" + report.Target + "`"},
			{"Resolved Address", "`" + report.ResolvedAddr + "`"},
			{"Port Range", fmt.Sprintf("%d-%d", report.StartPort, report.EndPort)},
			{"Scan Date", report.DateScanned.Format("2006-01-02 15:04:05 MST")},
			{"Elapsed", report.Elapsed.Round(timeRounding).String()},
			{"Scan ID", "`" + report.ScanID + "`"},
		},
	})
	md.PlainText("")
}

// writeSummary writes the outcome summary section.
func (w *MarkdownWriter) writeSummary(md *markdown.Markdown, report *model.ScanReport) {
	md.H2("Summary")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Outcome", "Count"},
		Rows: [][]string{
			{"🟢 Open", strconv.Itoa(report.OpenCount)},
			{"🔴 Closed", strconv.Itoa(report.ClosedCount)},
			{"⚪ Errored", strconv.Itoa(report.ErroredCount)},
			{"**Total**", "**" + strconv.Itoa(report.TotalPorts()) + "**"},
		},
	})
	md.PlainText("")

	if report.OpenCount > 0 {
		w.writePieChart(md, report)
	}

	w.writeAlert(md, report)
}

// writePieChart writes a mermaid pie chart for outcome distribution.
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, report *model.ScanReport) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Port Outcome Distribution"),
		piechart.WithShowData(true),
	)

	if report.OpenCount > 0 {
		chart.LabelAndIntValue("Open", uint64(report.OpenCount))
	}
	if report.ClosedCount > 0 {
		chart.LabelAndIntValue("Closed", uint64(report.ClosedCount))
	}
	if report.ErroredCount > 0 {
		chart.LabelAndIntValue("Errored", uint64(report.ErroredCount))
	}

	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// writeAlert writes an appropriate alert based on what was found.
func (w *MarkdownWriter) writeAlert(md *markdown.Markdown, report *model.ScanReport) {
	debug, rpc := 0, 0
	for _, outcome := range report.OpenPorts() {
		if outcome.Service == nil {
			continue
		}
		switch outcome.Service.Service {
		case model.ServiceDebugRemote:
			debug++
		case model.ServiceEthereumRPC:
			rpc++
		}
	}

	switch {
	case debug > 0:
		md.Cautionf(
			"%d open debug/remote-protocol port(s) detected. These should not be reachable from untrusted networks.",
			debug,
		)
	case rpc > 0:
		md.Warningf(
			"%d Ethereum JSON-RPC endpoint(s) answered on this host. Exposed RPC nodes can leak account and chain state.",
			rpc,
		)
	case report.OpenCount > 0:
		md.Note(fmt.Sprintf("%d open port(s) found in the scanned range.", report.OpenCount))
	default:
		md.Tip("No open ports found in the scanned range.")
	}
	md.PlainText("")
}

// writeOpenPorts writes the per-port detail for every open port.
func (w *MarkdownWriter) writeOpenPorts(md *markdown.Markdown, report *model.ScanReport) {
	md.H2("Open Ports")
	md.PlainText("")

	open := report.OpenPorts()
	if len(open) == 0 {
		md.PlainText("No open ports detected.")
		md.PlainText("")
		return
	}

	rows := make([][]string, len(open))
	for i, outcome := range open {
		service, version := "unknown", "-"
		if outcome.Service != nil {
			service = outcome.Service.Service.String()
			if outcome.Service.Version != "" {
				version = outcome.Service.Version
			}
		}
		rows[i] = []string{
			strconv.Itoa(outcome.Port),
			service,
			truncateString(version, 50),
			outcome.RTT.Round(timeRounding).String(),
		}
	}

	md.Table(markdown.TableSet{
		Header: []string{"Port", "Service", "Version", "RTT"},
		Rows:   rows,
	})
	md.PlainText("")

	// Collapsible header detail for HTTP-like services.
	for _, outcome := range open {
		if outcome.Service == nil || len(outcome.Service.Headers) == 0 {
			continue
		}
		var sb strings.Builder
		for _, h := range outcome.Service.Headers {
			sb.WriteString(h.Name)
			sb.WriteString(": ")
			sb.WriteString(h.Value)
			sb.WriteString("<br>")
		}
		md.Details(fmt.Sprintf("Port %d response headers", outcome.Port), sb.String())
	}
	md.PlainText("")
}

// writeFooter writes the report footer.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by [portsleuth](https://github.com/portsleuth/portsleuth)*")
}

// truncateString truncates a string to maxLen characters with ellipsis.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
