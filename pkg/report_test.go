package dupfilehash

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func sampleResult() *ScanResult {
	return aggregate([]DuplicateSet{
		newDuplicateSet(1024, []byte{0x01}, []string{"/data/b.bin", "/data/a.bin"}),
		newDuplicateSet(10, []byte{0x02}, []string{"/data/x", "/data/y", "/data/z"}),
	})
}

func mustFormat(t *testing.T, result *ScanResult, format string) string {
	t.Helper()
	out, err := FormatReport(result, format)
	if err != nil {
		t.Fatalf("FormatReport(%s) failed: %v", format, err)
	}
	return out
}

func TestFormatReport_Human(t *testing.T) {
	out := mustFormat(t, sampleResult(), FormatHuman)

	expected := "Duplicate File Report\n" +
		"=====================\n\n" +
		"Total duplicate groups: 2\n" +
		"Total duplicate files: 5\n" +
		"Total wasted space: 1.0 KiB\n\n" +
		"\nGroup 1 (size: 1.0 KiB, wasted: 1.0 KiB)\n" +
		strings.Repeat("-", 60) + ":\n" +
		"  /data/a.bin\n" +
		"  /data/b.bin\n" +
		"\nGroup 2 (size: 10 B, wasted: 20 B)\n" +
		strings.Repeat("-", 60) + ":\n" +
		"  /data/x\n" +
		"  /data/y\n" +
		"  /data/z\n"
	if out != expected {
		t.Errorf("Unexpected human report:\n%s\nexpected:\n%s", out, expected)
	}
}

func TestFormatReport_Fdupes(t *testing.T) {
	out := mustFormat(t, sampleResult(), FormatFdupes)
	expected := "/data/a.bin\n/data/b.bin\n\n/data/x\n/data/y\n/data/z\n\n"
	if out != expected {
		t.Errorf("Expected %q, got %q", expected, out)
	}
}

func TestFormatReport_JSON(t *testing.T) {
	out := mustFormat(t, sampleResult(), FormatJSON)

	var decoded struct {
		Groups []struct {
			Size   uint64   `json:"size"`
			Files  []string `json:"files"`
			Wasted uint64   `json:"wasted"`
			Hash   string   `json:"hash"`
			Count  int      `json:"count"`
		} `json:"groups"`
		TotalWasted         uint64 `json:"total_wasted"`
		TotalDuplicateFiles int    `json:"total_duplicate_files"`
	}
	if err := json.Unmarshal([]byte(out), &decoded); err != nil {
		t.Fatalf("Report is not valid JSON: %v", err)
	}

	if len(decoded.Groups) != 2 {
		t.Fatalf("Expected 2 groups, got %d", len(decoded.Groups))
	}
	if !reflect.DeepEqual(decoded.Groups[0].Files, []string{"/data/a.bin", "/data/b.bin"}) {
		t.Errorf("Unexpected first group files: %v", decoded.Groups[0].Files)
	}
	if decoded.Groups[0].Hash != "01" || decoded.Groups[1].Count != 3 {
		t.Errorf("Unexpected groups: %+v", decoded.Groups)
	}
	if decoded.TotalWasted != 1044 || decoded.TotalDuplicateFiles != 5 {
		t.Errorf("Unexpected totals: wasted=%d files=%d", decoded.TotalWasted, decoded.TotalDuplicateFiles)
	}
}

func TestFormatReport_EmptyResult(t *testing.T) {
	empty := aggregate(nil)

	if out := mustFormat(t, empty, FormatJSON); !strings.Contains(out, `"groups": []`) {
		t.Errorf("Expected an empty groups array, got:\n%s", out)
	}
	if out := mustFormat(t, empty, FormatFdupes); out != "" {
		t.Errorf("Expected empty fdupes output, got %q", out)
	}
	if out := mustFormat(t, empty, FormatHuman); !strings.Contains(out, "Total duplicate groups: 0\n") {
		t.Errorf("Expected zero groups in human report, got:\n%s", out)
	}
}

func TestFormatReport_UnknownFormat(t *testing.T) {
	if _, err := FormatReport(sampleResult(), "xml"); err == nil {
		t.Error("Expected unknown format to be rejected")
	}
}

func TestWriteReport(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteReport(&buf, sampleResult(), FormatFdupes); err != nil {
		t.Fatalf("WriteReport failed: %v", err)
	}

	if expected := mustFormat(t, sampleResult(), FormatFdupes); buf.String() != expected {
		t.Errorf("Expected %q, got %q", expected, buf.String())
	}
}

func TestWriteReportFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "report.txt")

	for _, format := range []string{FormatHuman, FormatJSON, FormatFdupes} {
		t.Run(format, func(t *testing.T) {
			if err := WriteReportFile(path, sampleResult(), format); err != nil {
				t.Fatalf("WriteReportFile failed: %v", err)
			}

			written, err := os.ReadFile(path)
			if err != nil {
				t.Fatalf("Failed to read report: %v", err)
			}
			if expected := mustFormat(t, sampleResult(), format); string(written) != expected {
				t.Errorf("File content differs from FormatReport:\n%s\nexpected:\n%s", written, expected)
			}
		})
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("Failed to list %s: %v", dir, err)
	}
	if len(entries) != 1 {
		t.Errorf("Temporary files must not be left behind, found %d entries", len(entries))
	}
}

func TestWriteReportFile_ManyLines(t *testing.T) {
	// more lines than one writev call accepts
	var members []string
	for i := 0; i < maxIovecs*2+10; i++ {
		members = append(members, fmt.Sprintf("/data/file-%05d", i))
	}
	result := aggregate([]DuplicateSet{newDuplicateSet(1, []byte{0x03}, members)})

	path := filepath.Join(t.TempDir(), "big.txt")
	if err := WriteReportFile(path, result, FormatFdupes); err != nil {
		t.Fatalf("WriteReportFile failed: %v", err)
	}

	written, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read report: %v", err)
	}
	lines := strings.Split(strings.TrimSuffix(string(written), "\n\n"), "\n")
	if len(lines) != len(members) {
		t.Fatalf("Expected %d lines, got %d", len(members), len(lines))
	}
	if lines[0] != members[0] || lines[len(lines)-1] != members[len(members)-1] {
		t.Errorf("Unexpected first/last lines: %s / %s", lines[0], lines[len(lines)-1])
	}
}

func TestWriteReportFile_BadDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "report.txt")
	if err := WriteReportFile(path, sampleResult(), FormatHuman); err == nil {
		t.Error("Expected an error writing into a missing directory")
	}
}

func TestWriteSummary(t *testing.T) {
	var buf bytes.Buffer
	WriteSummary(&buf, sampleResult())

	out := buf.String()
	for _, want := range []string{
		"Found 2 duplicate file groups (5 files total)",
		"Total wasted space: 1.0 KiB",
		"1. Duplicate group (1.0 KiB x 2 files = 1.0 KiB wasted)",
		"   /data/a.bin\n",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected %q in summary:\n%s", want, out)
		}
	}

	buf.Reset()
	WriteSummary(&buf, aggregate(nil))
	if buf.String() != "No duplicates found!\n" {
		t.Errorf("Unexpected empty summary: %q", buf.String())
	}
}
