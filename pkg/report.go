package dupfilehash

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"syscall"

	"github.com/dustin/go-humanize"
	"github.com/google/vectorio"
)

// maxIovecs bounds one writev call. Linux UIO_MAXIOV is 1024.
const maxIovecs = 1024

// renderReportLines renders result in format as newline-terminated chunks
func renderReportLines(result *ScanResult, format string) ([][]byte, error) {
	switch strings.ToLower(format) {
	case FormatHuman, "":
		return renderHumanReport(result), nil
	case FormatJSON:
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("failed to encode report: %w", err)
		}
		return [][]byte{append(data, '\n')}, nil
	case FormatFdupes:
		return renderFdupesReport(result), nil
	default:
		return nil, ValidateOutputFormat(format)
	}
}

func renderHumanReport(result *ScanResult) [][]byte {
	lines := [][]byte{
		[]byte("Duplicate File Report\n"),
		[]byte("=====================\n\n"),
		[]byte(fmt.Sprintf("Total duplicate groups: %d\n", len(result.Sets))),
		[]byte(fmt.Sprintf("Total duplicate files: %d\n", result.TotalDuplicateFiles)),
		[]byte(fmt.Sprintf("Total wasted space: %s\n\n", humanize.IBytes(result.TotalWasted))),
	}

	rule := []byte(strings.Repeat("-", 60) + ":\n")
	for i, set := range result.Sets {
		lines = append(lines,
			[]byte(fmt.Sprintf("\nGroup %d (size: %s, wasted: %s)\n", i+1, humanize.IBytes(set.Size), humanize.IBytes(set.Wasted))),
			rule,
		)
		for _, path := range set.Members {
			lines = append(lines, []byte("  "+path+"\n"))
		}
	}
	return lines
}

// renderFdupesReport emits one path per line with a blank line after each set
func renderFdupesReport(result *ScanResult) [][]byte {
	var lines [][]byte
	for _, set := range result.Sets {
		for _, path := range set.Members {
			lines = append(lines, []byte(path+"\n"))
		}
		lines = append(lines, []byte("\n"))
	}
	return lines
}

// FormatReport renders result in the given format
func FormatReport(result *ScanResult, format string) (string, error) {
	lines, err := renderReportLines(result, format)
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	for _, line := range lines {
		sb.Write(line)
	}
	return sb.String(), nil
}

// WriteReport writes result to w in the given format
func WriteReport(w io.Writer, result *ScanResult, format string) error {
	lines, err := renderReportLines(result, format)
	if err != nil {
		return err
	}
	for _, line := range lines {
		if _, err := w.Write(line); err != nil {
			return fmt.Errorf("failed to write report: %w", err)
		}
	}
	return nil
}

// WriteReportFile writes the report to path. The report is written to a temporary file
// in the same directory and renamed into place, so readers never see a partial report.
func WriteReportFile(path string, result *ScanResult, format string) error {
	defer VerboseEnter()()

	lines, err := renderReportLines(result, format)
	if err != nil {
		return err
	}

	tempPath := generateTempFileName(path)
	if err := writeLinesWithVectorIO(tempPath, lines); err != nil {
		os.Remove(tempPath)
		return err
	}

	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to move report into place at %s: %w", path, err)
	}

	VerboseLog(1, "Report saved to: %s", path)
	return nil
}

// writeLinesWithVectorIO writes lines to a new file with writev, at most maxIovecs buffers per call
func writeLinesWithVectorIO(outputPath string, lines [][]byte) error {
	file, err := os.OpenFile(outputPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("failed to create report file %s: %w", outputPath, err)
	}
	defer file.Close()

	for offset := 0; offset < len(lines); offset += maxIovecs {
		end := offset + maxIovecs
		if end > len(lines) {
			end = len(lines)
		}
		if err := writeChunk(file, lines[offset:end]); err != nil {
			return err
		}
	}

	if err := file.Sync(); err != nil {
		return fmt.Errorf("failed to sync report file: %w", err)
	}
	return file.Close()
}

// writeChunk issues one writev for chunk and finishes any short write with plain writes
func writeChunk(file *os.File, chunk [][]byte) error {
	iovecs := make([]syscall.Iovec, 0, len(chunk))
	expected := 0
	for _, line := range chunk {
		if len(line) == 0 {
			continue
		}
		iov := syscall.Iovec{Base: &line[0]}
		iov.SetLen(len(line))
		iovecs = append(iovecs, iov)
		expected += len(line)
	}
	if len(iovecs) == 0 {
		return nil
	}

	nw, err := vectorio.WritevRaw(uintptr(file.Fd()), iovecs)
	if err != nil {
		return fmt.Errorf("failed to write report chunk with vectorio: %w", err)
	}
	if nw == expected {
		return nil
	}

	DebugLog("report", "short writev: wrote %d of %d bytes", nw, expected)
	skip := nw
	for _, line := range chunk {
		if skip >= len(line) {
			skip -= len(line)
			continue
		}
		if _, err := file.Write(line[skip:]); err != nil {
			return fmt.Errorf("failed to write report: %w", err)
		}
		skip = 0
	}
	return nil
}

// WriteSummary prints the console overview of result
func WriteSummary(w io.Writer, result *ScanResult) {
	if result.IsEmpty() {
		fmt.Fprintln(w, "No duplicates found!")
		return
	}

	fmt.Fprintf(w, "\nFound %d duplicate file groups (%d files total)\n", len(result.Sets), result.TotalDuplicateFiles)
	fmt.Fprintf(w, "Total wasted space: %s\n\n", humanize.IBytes(result.TotalWasted))

	for i, set := range result.Sets {
		fmt.Fprintf(w, "%d. Duplicate group (%s x %d files = %s wasted)\n",
			i+1, humanize.IBytes(set.Size), len(set.Members), humanize.IBytes(set.Wasted))
		for _, path := range set.Members {
			fmt.Fprintf(w, "   %s\n", path)
		}
		fmt.Fprintln(w)
	}
}
