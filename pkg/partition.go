package dupfilehash

import (
	"sort"
)

// partitionBySize groups indexed records by exact byte size and keeps only groups with two or more members.
// Two files of different size cannot be identical, so singletons are dropped without reading any content.
// Members keep the index's path order; groups come back in ascending size.
func partitionBySize(idx *recordIndex) []SizeGroup {
	defer VerboseEnter()()

	bySize := make(map[uint64][]*FileRecord)
	idx.ForEach(func(rec *FileRecord, _ string) bool {
		bySize[rec.Size] = append(bySize[rec.Size], rec)
		return true
	})

	groups := make([]SizeGroup, 0, len(bySize))
	for size, records := range bySize {
		if len(records) > 1 {
			groups = append(groups, SizeGroup{Size: size, Records: records})
		}
	}

	sort.Slice(groups, func(i, j int) bool {
		return groups[i].Size < groups[j].Size
	})

	VerboseLog(1, "Found %d size groups with potential duplicates", len(groups))
	return groups
}

// partitionByDigest splits one hashed size group into duplicate sets.
// Records without a digest are left out; digest buckets with a single member are discarded.
func partitionByDigest(group SizeGroup) []DuplicateSet {
	byDigest := make(map[string][]string)
	var order []string

	for _, rec := range group.Records {
		if !rec.HasDigest() {
			continue
		}
		key := string(rec.Digest)
		if _, seen := byDigest[key]; !seen {
			order = append(order, key)
		}
		byDigest[key] = append(byDigest[key], rec.Path)
	}

	var sets []DuplicateSet
	for _, key := range order {
		paths := byDigest[key]
		if len(paths) < 2 {
			continue
		}
		sets = append(sets, newDuplicateSet(group.Size, []byte(key), paths))
	}

	if IsDebugEnabled("partition") {
		DebugLog("partition", "size %d: %d records, %d duplicate sets", group.Size, len(group.Records), len(sets))
	}
	return sets
}
