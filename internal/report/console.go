package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/portsleuth/portsleuth/internal/model"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// ConsoleWriter outputs human-readable text reports for terminal display.
// Open ports are highlighted and service labels are rendered as titles
// ("Ethereum Rpc" style rather than the raw "ethereum-rpc" identifier).
type ConsoleWriter struct {
	baseWriter

	// showClosed includes closed and errored ports in the output.
	// Off by default: for a 1024-port range the closed list is noise.
	showClosed bool

	// noColor disables ANSI escape sequences. Useful when piping
	// output to a file or another tool.
	noColor bool
}

// ConsoleWriterOption configures a ConsoleWriter.
type ConsoleWriterOption func(*ConsoleWriter)

// WithShowClosed includes non-open ports in the detail listing.
func WithShowClosed(show bool) ConsoleWriterOption {
	return func(w *ConsoleWriter) {
		w.showClosed = show
	}
}

// WithNoColor disables colored output.
func WithNoColor(disable bool) ConsoleWriterOption {
	return func(w *ConsoleWriter) {
		w.noColor = disable
	}
}

// NewConsoleWriter creates a ConsoleWriter that outputs to the given writer.
func NewConsoleWriter(output io.Writer, opts ...ConsoleWriterOption) *ConsoleWriter {
	w := &ConsoleWriter{
		baseWriter: newBaseWriter(output),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs the full report in human-readable format.
func (w *ConsoleWriter) Write(report *model.ScanReport) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb, report)
	w.writeOpenPorts(&sb, report)
	if w.showClosed {
		w.writeOtherPorts(&sb, report)
	}
	w.writeCounts(&sb, report)

	return w.output.Write([]byte(sb.String()))
}

// WriteSummary outputs only the header and summary counts.
func (w *ConsoleWriter) WriteSummary(report *model.ScanReport) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb, report)
	w.writeCounts(&sb, report)

	return w.output.Write([]byte(sb.String()))
}

// writeHeader writes the report header with scan information.
func (w *ConsoleWriter) writeHeader(sb *strings.Builder, report *model.ScanReport) {
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("                         PORTSLEUTH REPORT\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n\n")

	sb.WriteString(fmt.Sprintf("Target:     %s (%s)\n", report.Target, report.ResolvedAddr))
	sb.WriteString(fmt.Sprintf("Port Range: %d-%d (%d ports)\n", report.StartPort, report.EndPort, report.TotalPorts()))
	sb.WriteString(fmt.Sprintf("Scan Date:  %s\n", report.DateScanned.Format("2006-01-02 15:04:05 MST")))
	sb.WriteString(fmt.Sprintf("Elapsed:    %s\n", report.Elapsed.Round(timeRounding)))
	sb.WriteString(fmt.Sprintf("Scan ID:    %s\n", report.ScanID))
	sb.WriteString("\n")
}

// writeOpenPorts writes one line per open port with its classification.
func (w *ConsoleWriter) writeOpenPorts(sb *strings.Builder, report *model.ScanReport) {
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("OPEN PORTS\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	open := report.OpenPorts()
	if len(open) == 0 {
		sb.WriteString("  No open ports detected\n\n")
		return
	}

	for _, outcome := range open {
		sb.WriteString(fmt.Sprintf("  %s %5d  %-18s %s\n",
			w.paint(color.FgGreen, "[+]"),
			outcome.Port,
			w.serviceLabel(outcome.Service),
			w.versionText(outcome.Service),
		))
		if outcome.Service != nil {
			for _, h := range outcome.Service.Headers {
				sb.WriteString(fmt.Sprintf("        %s: %s\n", h.Name, h.Value))
			}
		}
	}
	sb.WriteString("\n")
}

// writeOtherPorts writes closed and errored ports.
func (w *ConsoleWriter) writeOtherPorts(sb *strings.Builder, report *model.ScanReport) {
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("CLOSED AND ERRORED PORTS\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	for _, outcome := range report.Outcomes {
		if outcome.IsOpen() {
			continue
		}
		marker := w.paint(color.FgRed, "[-]")
		line := fmt.Sprintf("  %s %5d  %s", marker, outcome.Port, outcome.Status)
		if outcome.Reason != "" {
			line += " (" + outcome.Reason + ")"
		}
		sb.WriteString(line + "\n")
	}
	sb.WriteString("\n")
}

// writeCounts writes the summary totals.
func (w *ConsoleWriter) writeCounts(sb *strings.Builder, report *model.ScanReport) {
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("  OPEN: %s   CLOSED: %d   ERRORED: %d   TOTAL: %d\n",
		w.paint(color.FgGreen, fmt.Sprintf("%d", report.OpenCount)),
		report.ClosedCount,
		report.ErroredCount,
		report.TotalPorts(),
	))
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
}

// serviceLabel renders a classification label as a title for display.
// "ethereum-rpc" becomes "Ethereum Rpc", "ssh" becomes "Ssh".
func (w *ConsoleWriter) serviceLabel(info *model.ServiceInfo) string {
	if info == nil {
		return "Unknown"
	}
	label := strings.ReplaceAll(info.Service.String(), "-", " ")
	return cases.Title(language.English).String(label)
}

// versionText returns the version string for display, or empty.
func (w *ConsoleWriter) versionText(info *model.ServiceInfo) string {
	if info == nil || info.Version == "" {
		return ""
	}
	return info.Version
}

// paint applies a terminal color unless color is disabled.
func (w *ConsoleWriter) paint(attr color.Attribute, s string) string {
	if w.noColor {
		return s
	}
	return color.New(attr).Sprint(s)
}
