package main

import (
	"bytes"
	"flag"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dupfilehash "github.com/mattkeenan/dupfilehash/pkg"
)

// parseDupesFlags parses args the way subcommands does and returns the explicitly set flags
func parseDupesFlags(t *testing.T, args ...string) (*dupesCommand, map[string]bool) {
	t.Helper()
	cmd := &dupesCommand{}
	fs := flag.NewFlagSet("dupes", flag.ContinueOnError)
	cmd.SetFlags(fs)
	require.NoError(t, fs.Parse(args), "Parse(%v)", args)
	set := make(map[string]bool)
	fs.Visit(func(fl *flag.Flag) { set[fl.Name] = true })
	return cmd, set
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestResolve_Defaults(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "absent")
	cmd, set := parseDupesFlags(t, "-config", missing)

	plan, err := cmd.resolve("/data", set)
	require.NoError(t, err)

	assert.Equal(t, "/data", plan.opts.Root)
	assert.True(t, plan.opts.Recursive)
	assert.False(t, plan.opts.SkipHidden)
	assert.Zero(t, plan.opts.MinSize)
	assert.Equal(t, dupfilehash.FormatHuman, plan.format)
	assert.Equal(t, uint64(dupfilehash.DefaultCeilingBytes), plan.settings.CeilingBytes)
	assert.Equal(t, dupfilehash.DefaultHashAlgorithm, plan.settings.Algorithm.Name)
}

func TestResolve_ConfigFile(t *testing.T) {
	path := writeConfig(t, `[filehash]
default = sha512

[performance]
threads = 2
max_hash_size_mb = 10

[output]
format = fdupes

[scan]
recursive = false
skip_hidden = true
min_size = 1K
`)
	cmd, set := parseDupesFlags(t, "-config", path)

	plan, err := cmd.resolve(".", set)
	require.NoError(t, err)

	assert.Equal(t, "sha512", plan.settings.Algorithm.Name)
	assert.Equal(t, 2, plan.settings.Workers)
	assert.Equal(t, uint64(10<<20), plan.settings.CeilingBytes)
	assert.Equal(t, dupfilehash.FormatFdupes, plan.format)
	assert.False(t, plan.opts.Recursive)
	assert.True(t, plan.opts.SkipHidden)
	assert.Equal(t, uint64(1024), plan.opts.MinSize)
}

func TestResolve_FlagsOverrideConfig(t *testing.T) {
	path := writeConfig(t, "[filehash]\ndefault = sha512\n[output]\nformat = fdupes\n[scan]\nrecursive = false\nmin_size = 1K\n")
	cmd, set := parseDupesFlags(t,
		"-config", path,
		"-hash", "blake3",
		"-format", "JSON",
		"-r=true",
		"-threads", "3",
		"-max-hash-size", "0",
		"-min-size", "2M",
		"-exclude", `\.git$`,
		"-exclude", `^tmp/`,
	)

	plan, err := cmd.resolve(".", set)
	require.NoError(t, err)

	assert.Equal(t, "blake3", plan.settings.Algorithm.Name)
	assert.Equal(t, dupfilehash.FormatJSON, plan.format)
	assert.True(t, plan.opts.Recursive, "-r must override config")
	assert.Equal(t, 3, plan.settings.Workers)
	assert.Zero(t, plan.settings.CeilingBytes)
	assert.Equal(t, uint64(2<<20), plan.opts.MinSize)
	assert.Equal(t, []string{`\.git$`, `^tmp/`}, []string(plan.opts.Excludes))
}

func TestResolve_EmptyMinSizeFlagClearsConfig(t *testing.T) {
	path := writeConfig(t, "[scan]\nmin_size = 1K\n")
	cmd, set := parseDupesFlags(t, "-config", path, "-min-size", "")

	plan, err := cmd.resolve(".", set)
	require.NoError(t, err)
	assert.Zero(t, plan.opts.MinSize)
}

func TestResolve_InvalidConfigFallsBack(t *testing.T) {
	path := writeConfig(t, "[filehash]\ndefault = sha1\n[output]\nformat = fdupes\n")
	cmd, set := parseDupesFlags(t, "-config", path)

	plan, err := cmd.resolve(".", set)
	require.NoError(t, err)
	assert.Equal(t, dupfilehash.DefaultHashAlgorithm, plan.settings.Algorithm.Name)
	assert.Equal(t, dupfilehash.FormatHuman, plan.format, "the whole config must be replaced by defaults")
}

func TestResolve_InvalidConfigMinSizeFallsBack(t *testing.T) {
	path := writeConfig(t, "[filehash]\ndefault = sha512\n[scan]\nmin_size = lots\n")

	cmd, set := parseDupesFlags(t, "-config", path)
	plan, err := cmd.resolve(".", set)
	require.NoError(t, err, "a bad min_size in the config file is not a usage error")
	require.NotNil(t, plan)
	assert.Zero(t, plan.opts.MinSize)
	assert.Equal(t, "sha512", plan.settings.Algorithm.Name, "valid config values still apply")

	cmd, set = parseDupesFlags(t, "-config", path, "-min-size", "4K")
	plan, err = cmd.resolve(".", set)
	require.NoError(t, err)
	assert.Equal(t, uint64(4096), plan.opts.MinSize)
}

func TestResolve_OversizedCeilingFallsBack(t *testing.T) {
	path := writeConfig(t, "[performance]\nmax_hash_size_mb = 18446744073709551615\n")
	cmd, set := parseDupesFlags(t, "-config", path)

	plan, err := cmd.resolve(".", set)
	require.NoError(t, err)
	assert.Equal(t, uint64(dupfilehash.DefaultCeilingBytes), plan.settings.CeilingBytes)
}

func TestResolve_UsageErrors(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "absent")
	tests := [][]string{
		{"-format", "xml"},
		{"-hash", "sha1"},
		{"-threads", "0"},
		{"-min-size", "lots"},
		{"-max-hash-size", "x"},
		{"-v", "9"},
	}

	for _, args := range tests {
		t.Run(strings.Join(args, " "), func(t *testing.T) {
			cmd, set := parseDupesFlags(t, append([]string{"-config", missing}, args...)...)
			_, err := cmd.resolve(".", set)
			assert.Error(t, err, "expected %v to be rejected", args)
		})
	}
}

func TestResolve_ExcludesPassedThrough(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "absent")
	cmd, set := parseDupesFlags(t, "-config", missing, "-exclude", "(")

	// patterns are compiled by the scan itself
	plan, err := cmd.resolve(".", set)
	require.NoError(t, err)
	assert.Equal(t, []string{"("}, []string(plan.opts.Excludes))
}

func TestConfigSetAndShow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dupfind", "config")

	require.NoError(t, setConfig(path, []string{"default:blake3", "threads:4"}))

	var buf bytes.Buffer
	require.NoError(t, showConfig(&buf, path))
	out := buf.String()
	for _, want := range []string{"default = blake3", "threads = 4", "max_hash_size_mb = 1024", "format = human"} {
		assert.Contains(t, out, want)
	}

	assert.Error(t, setConfig(path, []string{"default:md5"}), "invalid algorithm must be refused")
	assert.Error(t, setConfig(path, []string{"format:xml"}), "invalid format must be refused")
	assert.Error(t, setConfig(path, []string{"min_size:lots"}), "invalid min_size must be refused")
	assert.Error(t, setConfig(path, []string{"max_hash_size_mb:18446744073709551615"}), "overflowing ceiling must be refused")

	buf.Reset()
	require.NoError(t, showConfig(&buf, path))
	assert.Contains(t, buf.String(), "default = blake3", "refused changes must not be saved")
}

func TestConfigInitRefusesOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config")
	cmd := &configCommand{}

	require.NoError(t, cmd.initConfig(path))
	assert.Error(t, cmd.initConfig(path), "second init without -force must fail")

	cmd.force = true
	assert.NoError(t, cmd.initConfig(path))
}

func TestStringList(t *testing.T) {
	var list stringList
	require.NoError(t, list.Set("a"))
	require.NoError(t, list.Set("b"))
	assert.Equal(t, "a,b", list.String())
}
