package dupfilehash

import (
	"context"
	"encoding/hex"
	"sort"

	"github.com/dustin/go-humanize"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/mattkeenan/dupfilehash"

// DuplicateSet is a group of two or more files with identical size and content digest
type DuplicateSet struct {
	Size    uint64   `json:"size"`
	Members []string `json:"files"`
	Wasted  uint64   `json:"wasted"`
	Digest  string   `json:"hash"`
	Count   int      `json:"count"`
}

// newDuplicateSet builds a set with sorted members and its reclaimable space
func newDuplicateSet(size uint64, digest []byte, paths []string) DuplicateSet {
	members := append([]string(nil), paths...)
	sort.Strings(members)
	return DuplicateSet{
		Size:    size,
		Members: members,
		Wasted:  size * uint64(len(members)-1),
		Digest:  hex.EncodeToString(digest),
		Count:   len(members),
	}
}

// ScanStats records what each pipeline stage saw
type ScanStats struct {
	FilesScanned    int            `json:"files_scanned"`
	CandidateGroups int            `json:"candidate_groups"`
	CandidateFiles  int            `json:"candidate_files"`
	HashedFiles     int            `json:"hashed_files"`
	HashFailures    int            `json:"hash_failures"`
	SkippedGroups   []SkippedGroup `json:"skipped_groups,omitempty"`
	Algorithm       string         `json:"algorithm"`
}

// ScanResult is the outcome of one scan: duplicate sets sorted by wasted space, largest first
type ScanResult struct {
	Sets                []DuplicateSet `json:"groups"`
	TotalWasted         uint64         `json:"total_wasted"`
	TotalDuplicateFiles int            `json:"total_duplicate_files"`
	Stats               ScanStats      `json:"stats"`
}

// IsEmpty reports whether no duplicates were found
func (sr *ScanResult) IsEmpty() bool {
	return len(sr.Sets) == 0
}

// aggregate orders duplicate sets and computes totals.
// Order: wasted space descending, then size descending, then first member path ascending.
func aggregate(sets []DuplicateSet) *ScanResult {
	sort.SliceStable(sets, func(i, j int) bool {
		a, b := sets[i], sets[j]
		if a.Wasted != b.Wasted {
			return a.Wasted > b.Wasted
		}
		if a.Size != b.Size {
			return a.Size > b.Size
		}
		return a.Members[0] < b.Members[0]
	})

	result := &ScanResult{Sets: sets}
	if result.Sets == nil {
		result.Sets = []DuplicateSet{}
	}
	for _, set := range sets {
		result.TotalWasted += set.Wasted
		result.TotalDuplicateFiles += len(set.Members)
	}
	return result
}

// Finder runs duplicate scans with a fixed set of engine settings
type Finder struct {
	settings Settings
}

// NewFinder creates a finder. Unset fields in settings take their defaults.
func NewFinder(settings Settings) *Finder {
	return &Finder{settings: settings.withDefaults()}
}

// Settings returns the settings the finder runs with
func (f *Finder) Settings() Settings {
	return f.settings
}

// FindDuplicates scans opts.Root and reports every set of byte-identical files.
// Only a missing or unlistable root (or cancellation of ctx) fails the scan;
// unreadable files are left out of the result.
func (f *Finder) FindDuplicates(ctx context.Context, opts ScanOptions) (*ScanResult, error) {
	defer VerboseEnter()()

	tracer := otel.Tracer(tracerName)
	ctx, span := tracer.Start(ctx, "FindDuplicates", trace.WithAttributes(
		attribute.String("scan.root", opts.Root),
		attribute.Bool("scan.recursive", opts.Recursive),
		attribute.Int64("scan.min_size", int64(opts.MinSize)),
		attribute.Int64("hash.ceiling", int64(f.settings.CeilingBytes)),
		attribute.Int("hash.workers", f.settings.Workers),
		attribute.String("hash.algorithm", f.settings.Algorithm.Name),
	))
	defer span.End()

	VerboseLog(1, "Scanning for duplicates in: %s", opts.Root)

	_, invSpan := tracer.Start(ctx, "inventory")
	records, err := collectInventory(ctx, opts, f.settings.Workers)
	if err != nil {
		markSpanError(invSpan, err)
		invSpan.End()
		markSpanError(span, err)
		return nil, err
	}
	invSpan.SetAttributes(attribute.Int("files", len(records)))
	invSpan.End()

	_, sizeSpan := tracer.Start(ctx, "partition.size")
	idx := buildRecordIndex(records)
	groups := partitionBySize(idx)
	candidates := 0
	for _, g := range groups {
		candidates += len(g.Records)
	}
	sizeSpan.SetAttributes(attribute.Int("groups", len(groups)), attribute.Int("files", candidates))
	sizeSpan.End()

	hashCtx, hashSpan := tracer.Start(ctx, "hash")
	hashed, hashStats, err := hashSizeGroups(hashCtx, groups, idx, f.settings)
	if err != nil {
		markSpanError(hashSpan, err)
		hashSpan.End()
		markSpanError(span, err)
		return nil, err
	}
	hashSpan.SetAttributes(
		attribute.Int("hashed", hashStats.Hashed),
		attribute.Int("failed", hashStats.Failed),
		attribute.Int("skipped_groups", len(hashStats.Skipped)),
	)
	hashSpan.End()

	_, digestSpan := tracer.Start(ctx, "partition.digest")
	var sets []DuplicateSet
	for _, group := range hashed {
		sets = append(sets, partitionByDigest(group)...)
	}
	digestSpan.SetAttributes(attribute.Int("sets", len(sets)))
	digestSpan.End()

	_, aggSpan := tracer.Start(ctx, "aggregate")
	result := aggregate(sets)
	result.Stats = ScanStats{
		FilesScanned:    len(records),
		CandidateGroups: len(groups),
		CandidateFiles:  candidates,
		HashedFiles:     hashStats.Hashed,
		HashFailures:    hashStats.Failed,
		SkippedGroups:   hashStats.Skipped,
		Algorithm:       f.settings.Algorithm.Name,
	}
	aggSpan.SetAttributes(
		attribute.Int("sets", len(result.Sets)),
		attribute.Int64("total_wasted", int64(result.TotalWasted)),
	)
	aggSpan.End()

	if GetVerboseLevel() >= 2 {
		for stage, count := range idx.ContextCounts() {
			VerboseLog(2, "Records in %s context: %d", stage, count)
		}
		idx.ForEachContext(FailedContext, func(rec *FileRecord) bool {
			VerboseLog(2, "Not compared (unreadable): %s: %v", rec.Path, rec.HashErr)
			return true
		})
		idx.ForEachContext(OversizedContext, func(rec *FileRecord) bool {
			VerboseLog(2, "Not compared (over ceiling): %s (%s)", rec.Path, humanize.IBytes(rec.Size))
			return true
		})
	}

	return result, nil
}

// FindDuplicates runs a single scan with the given settings
func FindDuplicates(ctx context.Context, opts ScanOptions, settings Settings) (*ScanResult, error) {
	return NewFinder(settings).FindDuplicates(ctx, opts)
}

func markSpanError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
