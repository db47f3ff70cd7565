package models

import (
	"sort"
	"time"
)

// Known media extensions, lower-case with the leading dot
const (
	ExtVideo     = ".mp4"
	ExtThumbnail = ".jpg"
)

// MediaFile is a single discovered video file
type MediaFile struct {
	// Path is the absolute path on the filesystem
	Path string

	// Timestamp is the capture time parsed from the file name
	Timestamp time.Time

	// Archived is true when the file was found in the output tree
	// under the archived naming scheme
	Archived bool
}

// CaptureRecord bundles every file sharing one capture timestamp
type CaptureRecord struct {
	// Key is the canonical 14-digit timestamp
	Key string

	Timestamp time.Time

	// Video is the raw camera video, if any
	Video string

	// Thumbnail is the raw camera thumbnail, if any
	Thumbnail string

	// Archive is the re-encoded copy found in the output tree, if any.
	// Only populated when the output tree is scanned.
	Archive string
}

// IsOrphan reports whether the record holds a thumbnail with no video
// anywhere in the inventory
func (r *CaptureRecord) IsOrphan() bool {
	return r.Thumbnail != "" && r.Video == "" && r.Archive == ""
}

// DiscoveryStats counts what a discovery walk saw
type DiscoveryStats struct {
	FilesSeen    int
	FilesSkipped int
	DirsSkipped  int
	ArchivedSeen int
	TrashSeen    int
}

// Inventory is the canonical view of the media on disk
type Inventory struct {
	// Videos lists raw videos in walk order, followed by archived
	// videos when the output tree was scanned
	Videos []MediaFile

	// Records maps the canonical timestamp to its capture record
	Records map[string]*CaptureRecord

	// TrashPaths holds every file found under the trash root
	TrashPaths map[string]struct{}

	Stats DiscoveryStats
}

// NewInventory creates an empty inventory
func NewInventory() *Inventory {
	return &Inventory{
		Videos:     make([]MediaFile, 0),
		Records:    make(map[string]*CaptureRecord),
		TrashPaths: make(map[string]struct{}),
	}
}

// Record returns the capture record for key, creating it when missing
func (inv *Inventory) Record(key string, ts time.Time) *CaptureRecord {
	rec, ok := inv.Records[key]
	if !ok {
		rec = &CaptureRecord{Key: key, Timestamp: ts}
		inv.Records[key] = rec
	}
	return rec
}

// Lookup returns the capture record for key, or nil
func (inv *Inventory) Lookup(key string) *CaptureRecord {
	return inv.Records[key]
}

// Orphans returns the orphaned records sorted by timestamp
func (inv *Inventory) Orphans() []*CaptureRecord {
	return Orphans(inv.Records)
}

// Orphans returns the orphaned records of a record map sorted by timestamp
func Orphans(records map[string]*CaptureRecord) []*CaptureRecord {
	orphans := make([]*CaptureRecord, 0)
	for _, rec := range records {
		if rec.IsOrphan() {
			orphans = append(orphans, rec)
		}
	}
	sort.Slice(orphans, func(i, j int) bool {
		return orphans[i].Key < orphans[j].Key
	})
	return orphans
}

// IsEmpty reports whether there is nothing to act on
func (inv *Inventory) IsEmpty() bool {
	return len(inv.Videos) == 0 && len(inv.Orphans()) == 0
}
