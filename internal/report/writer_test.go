package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/portsleuth/portsleuth/internal/model"
)

// createTestReport creates a report with sample data for testing.
func createTestReport() *model.ScanReport {
	httpInfo := &model.ServiceInfo{
		Service: model.ServiceHTTPWeb,
		Version: "nginx/1.27.0",
	}
	httpInfo.AddHeader("Server", "nginx/1.27.0")
	httpInfo.AddHeader("Content-Type", "text/html")

	started := time.Date(2026, 8, 15, 9, 30, 0, 0, time.UTC)
	return &model.ScanReport{
		ScanID:       model.NewScanID("scanme.example.com", 1, 1024, started),
		Target:       "scanme.example.com",
		ResolvedAddr: "203.0.113.7",
		StartPort:    1,
		EndPort:      1024,
		DateScanned:  started,
		Elapsed:      3500 * time.Millisecond,
		Outcomes: []model.PortOutcome{
			{Port: 22, Status: model.StatusOpen, RTT: 12 * time.Millisecond,
				Service: &model.ServiceInfo{Service: model.ServiceSSH, Version: "SSH-2.0-OpenSSH_9.6"}},
			{Port: 25, Status: model.StatusTimedOut, Reason: "i/o timeout"},
			{Port: 80, Status: model.StatusOpen, RTT: 8 * time.Millisecond, Service: httpInfo},
			{Port: 443, Status: model.StatusClosed},
			{Port: 8545, Status: model.StatusOpen, RTT: 15 * time.Millisecond,
				Service: &model.ServiceInfo{Service: model.ServiceEthereumRPC, Version: "Geth/v1.14.0"}},
		},
		OpenCount:    3,
		ClosedCount:  1,
		ErroredCount: 1,
	}
}

// TestConsoleWriter tests the human-readable report writer.
func TestConsoleWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes report header", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewConsoleWriter(&buf, WithNoColor(true))

		if _, err := w.Write(createTestReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "PORTSLEUTH REPORT") {
			t.Error("expected output to contain header")
		}
		if !strings.Contains(output, "scanme.example.com (203.0.113.7)") {
			t.Error("expected output to contain target and resolved address")
		}
		if !strings.Contains(output, "1-1024 (1024 ports)") {
			t.Error("expected output to contain the port range")
		}
	})

	t.Run("writes open ports with title-cased labels", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewConsoleWriter(&buf, WithNoColor(true))

		if _, err := w.Write(createTestReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "Ethereum Rpc") {
			t.Errorf("expected title-cased service label, got:\n%s", output)
		}
		if !strings.Contains(output, "Geth/v1.14.0") {
			t.Error("expected output to contain the RPC client version")
		}
		if !strings.Contains(output, "Server: nginx/1.27.0") {
			t.Error("expected output to contain captured headers")
		}
	})

	t.Run("hides closed ports by default", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewConsoleWriter(&buf, WithNoColor(true))

		if _, err := w.Write(createTestReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if strings.Contains(buf.String(), "CLOSED AND ERRORED PORTS") {
			t.Error("closed section should be hidden by default")
		}
	})

	t.Run("shows closed ports when requested", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewConsoleWriter(&buf, WithNoColor(true), WithShowClosed(true))

		if _, err := w.Write(createTestReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "CLOSED AND ERRORED PORTS") {
			t.Error("expected closed section")
		}
		if !strings.Contains(output, "i/o timeout") {
			t.Error("expected the timed-out port's reason")
		}
	})

	t.Run("summary contains counts only", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewConsoleWriter(&buf, WithNoColor(true))

		if _, err := w.WriteSummary(createTestReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "OPEN: 3") {
			t.Error("expected open count in summary")
		}
		if strings.Contains(output, "OPEN PORTS") {
			t.Error("summary should not contain the per-port section")
		}
	})
}

// TestJSONWriter tests the JSON report writer.
func TestJSONWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes valid JSON", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewJSONWriter(&buf)

		if _, err := w.Write(createTestReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var decoded model.ScanReport
		if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
			t.Fatalf("output is not valid JSON: %v", err)
		}
		if decoded.Target != "scanme.example.com" {
			t.Errorf("Target = %q, want scanme.example.com", decoded.Target)
		}
		if len(decoded.Outcomes) != 5 {
			t.Errorf("len(Outcomes) = %d, want 5", len(decoded.Outcomes))
		}
	})

	t.Run("pretty print produces indented output", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewJSONWriter(&buf, WithPrettyPrint())

		if _, err := w.Write(createTestReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if !strings.Contains(buf.String(), "\n  ") {
			t.Error("expected indented output")
		}
	})

	t.Run("summary omits per-port outcomes", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewJSONWriter(&buf)

		if _, err := w.WriteSummary(createTestReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var decoded map[string]any
		if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
			t.Fatalf("output is not valid JSON: %v", err)
		}
		if _, ok := decoded["outcomes"]; ok {
			t.Error("summary should not contain outcomes")
		}
		if decoded["open_count"] != float64(3) {
			t.Errorf("open_count = %v, want 3", decoded["open_count"])
		}
	})

	t.Run("full writer wraps with version", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewFullJSONWriter(&buf, "1.2.3")

		if _, err := w.Write(createTestReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var decoded JSONReport
		if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
			t.Fatalf("output is not valid JSON: %v", err)
		}
		if decoded.Version != "1.2.3" {
			t.Errorf("Version = %q, want 1.2.3", decoded.Version)
		}
		if decoded.Report == nil || decoded.Report.ScanID == "" {
			t.Error("expected wrapped report with scan ID")
		}
	})
}

// TestMarkdownWriter tests the Markdown report writer.
func TestMarkdownWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes header and tables", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewMarkdownWriter(&buf)

		if _, err := w.Write(createTestReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "# Port Scan Report") {
			t.Error("expected H1 header")
		}
		if !strings.Contains(output, "`scanme.example.com`") {
			t.Error("expected target in the info table")
		}
		if !strings.Contains(output, "## Open Ports") {
			t.Error("expected open ports section")
		}
		if !strings.Contains(output, "8545") {
			t.Error("expected RPC port in the open ports table")
		}
	})

	t.Run("warns about exposed RPC", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewMarkdownWriter(&buf)

		if _, err := w.Write(createTestReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if !strings.Contains(buf.String(), "JSON-RPC") {
			t.Error("expected an alert about the exposed RPC endpoint")
		}
	})

	t.Run("tip when nothing open", func(t *testing.T) {
		t.Parallel()

		report := createTestReport()
		report.Outcomes = []model.PortOutcome{{Port: 80, Status: model.StatusClosed}}
		report.OpenCount = 0
		report.ClosedCount = 1
		report.ErroredCount = 0

		var buf bytes.Buffer
		w := NewMarkdownWriter(&buf)

		if _, err := w.Write(report); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if !strings.Contains(buf.String(), "No open ports") {
			t.Error("expected the no-open-ports message")
		}
	})
}

// errWriter always fails, for MultiWriter error propagation tests.
type errWriter struct{}

func (errWriter) Write(*model.ScanReport) (int, error)        { return 0, errors.New("sink failed") }
func (errWriter) WriteSummary(*model.ScanReport) (int, error) { return 0, errors.New("sink failed") }

// TestMultiWriter tests fan-out to multiple writers.
func TestMultiWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes to all writers", func(t *testing.T) {
		t.Parallel()

		var console, jsonBuf bytes.Buffer
		mw := NewMultiWriter(
			NewConsoleWriter(&console, WithNoColor(true)),
			NewJSONWriter(&jsonBuf),
		)

		if _, err := mw.Write(createTestReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if console.Len() == 0 {
			t.Error("console writer received nothing")
		}
		if jsonBuf.Len() == 0 {
			t.Error("JSON writer received nothing")
		}
	})

	t.Run("stops on first error", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		mw := NewMultiWriter(errWriter{}, NewJSONWriter(&buf))

		if _, err := mw.Write(createTestReport()); err == nil {
			t.Fatal("expected error from failing writer")
		}
		if buf.Len() != 0 {
			t.Error("writer after the failing one should not have been invoked")
		}
	})
}
