package dupfilehash

import (
	"sort"
	"strings"
)

// InitDebugFlags initialises debug flags - for CLI compatibility
func InitDebugFlags(flagsStr string) {
	if flagsStr != "" {
		SetDebugFlags(flagsStr)
	}
}

// LogDebugFlags logs the current debug flag status - for CLI compatibility
func LogDebugFlags() {
	if GetVerboseLevel() == 0 {
		return
	}
	var enabled []string
	for flag, on := range debugFlags {
		if on {
			enabled = append(enabled, flag)
		}
	}
	if len(enabled) > 0 {
		sort.Strings(enabled)
		VerboseLog(1, "Debug flags enabled: %s", strings.Join(enabled, ","))
	}
}
