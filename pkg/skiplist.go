package dupfilehash

import (
	"strings"

	zcsl "github.com/mattkeenan/zerocopyskiplist"
)

// recordIndex keeps every inventoried FileRecord ordered by path, tagged with a pipeline context.
// It stores pointers into the caller's record slice; records are never copied.
// Not safe for concurrent mutation: contexts are updated only between pipeline stages.
type recordIndex struct {
	skiplist *zcsl.ZeroCopySkiplist[FileRecord, string, string]
}

// newRecordIndex creates an empty path-ordered record index
func newRecordIndex(maxLevels int) *recordIndex {
	if maxLevels < 8 {
		maxLevels = 16
	}

	getKeyFromItem := func(rec *FileRecord) string {
		return rec.Path
	}

	getItemSize := func(rec *FileRecord) int {
		return len(rec.Path)
	}

	skiplist := zcsl.MakeZeroCopySkiplist[FileRecord, string, string](
		maxLevels,
		getKeyFromItem,
		getItemSize,
		strings.Compare,
	)

	return &recordIndex{skiplist: skiplist}
}

// buildRecordIndex indexes records under ScanContext. Duplicate paths keep the first record.
func buildRecordIndex(records []FileRecord) *recordIndex {
	idx := newRecordIndex(16)
	for i := range records {
		if !idx.Insert(&records[i], ScanContext) {
			VerboseLog(2, "Duplicate inventory path ignored: %s", records[i].Path)
		}
	}
	return idx
}

// Insert adds a record with a context. A path that is already indexed keeps its
// existing record and context, and Insert returns false.
func (ri *recordIndex) Insert(rec *FileRecord, context string) bool {
	if existing, _ := ri.Find(rec.Path); existing != nil {
		return false
	}
	return ri.skiplist.Insert(rec, context)
}

// Find looks a record up by path and returns it with its context
func (ri *recordIndex) Find(path string) (*FileRecord, string) {
	itemPtr, context := ri.skiplist.Find(path)
	if itemPtr != nil {
		return itemPtr.Item(), context
	}
	return nil, ""
}

// ForEach iterates records in path order until the callback returns false
func (ri *recordIndex) ForEach(callback func(*FileRecord, string) bool) {
	for current := ri.skiplist.First(); current != nil; current = current.Next() {
		if !callback(current.Item(), current.Context()) {
			break
		}
	}
}

// ForEachContext iterates records whose context matches
func (ri *recordIndex) ForEachContext(context string, callback func(*FileRecord) bool) {
	ri.ForEach(func(rec *FileRecord, recContext string) bool {
		if recContext == context {
			return callback(rec)
		}
		return true
	})
}

// UpdateContext moves a record to a new pipeline context
func (ri *recordIndex) UpdateContext(path string, newContext string) bool {
	return ri.skiplist.UpdateContext(path, newContext)
}

// Length returns the number of indexed records
func (ri *recordIndex) Length() int {
	return ri.skiplist.Length()
}

// IsEmpty returns true if nothing is indexed
func (ri *recordIndex) IsEmpty() bool {
	return ri.skiplist.IsEmpty()
}

// ContextCounts returns how many records sit in each context
func (ri *recordIndex) ContextCounts() map[string]int {
	counts := make(map[string]int)
	ri.ForEach(func(_ *FileRecord, context string) bool {
		counts[context]++
		return true
	})
	return counts
}
