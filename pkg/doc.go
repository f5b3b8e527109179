// Package dupfilehash finds byte-identical files under a directory tree and
// reports how much space their redundant copies take.
//
// # Pipeline
//
// A scan runs five stages in order: inventory, size partition, hash,
// digest partition and aggregate. Files are only read when another file has
// exactly the same size, and files above the hashing ceiling are never read.
//
//	finder := dupfilehash.NewFinder(dupfilehash.DefaultSettings())
//	result, err := finder.FindDuplicates(ctx, dupfilehash.ScanOptions{
//		Root:      "/srv/media",
//		Recursive: true,
//	})
//	for _, set := range result.Sets {
//		fmt.Printf("%d bytes x %d: %v\n", set.Size, set.Count, set.Members)
//	}
//
// Only a missing or unlistable root, or cancellation of ctx, fails a scan.
// Files that cannot be read are left out of the result.
//
// # Configuration
//
// Settings can be built by hand or loaded from an ini file:
//
//	cfg, err := dupfilehash.LoadConfig(path)
//	settings, err := cfg.Settings()
//
// Enable debug output:
//
//	dupfilehash.SetDebugFlags("walk,hash,partition")
//	dupfilehash.SetVerboseLevel(2)
//
// # Reports
//
// WriteReport and WriteReportFile render a ScanResult as human readable
// text, JSON or fdupes-compatible path lists.
package dupfilehash
