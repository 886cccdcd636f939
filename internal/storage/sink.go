package storage

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rohmanhakim/status-digest/internal/metadata"
	"github.com/rohmanhakim/status-digest/internal/record"
	"github.com/rohmanhakim/status-digest/internal/runctx"
	"github.com/rohmanhakim/status-digest/pkg/failure"
	"github.com/rohmanhakim/status-digest/pkg/fileutil"
	"github.com/rohmanhakim/status-digest/pkg/hashutil"
)

/*
Responsibilities

- Persist one JSON snapshot per vendor per run
- Load snapshots back for aggregation
- Ensure deterministic filenames

Output Characteristics

- Stable flat layout: {OUT_DIR}/{vendor}.json
- Snapshots are overwritten wholesale each run
- Corrupt snapshot files are skipped on read, never fatal
*/

type Sink interface {
	WriteSnapshot(
		rc runctx.RunContext,
		rec record.CanonicalVendorRecord,
	) (WriteResult, failure.ClassifiedError)
}

type LocalSink struct {
	metadataSink metadata.MetadataSink
}

func NewLocalSink(
	metadataSink metadata.MetadataSink,
) LocalSink {
	return LocalSink{
		metadataSink: metadataSink,
	}
}

// SnapshotPath returns the snapshot location for one vendor.
func SnapshotPath(outDir string, vendor string) string {
	return filepath.Join(outDir, vendor+".json")
}

func (s *LocalSink) WriteSnapshot(
	rc runctx.RunContext,
	rec record.CanonicalVendorRecord,
) (WriteResult, failure.ClassifiedError) {
	return s.writeRecorded(SnapshotPath(rc.OutDir, rec.Vendor), rec)
}

// Export writes the record to an explicit path outside the snapshot
// layout, for callers handing the file to another pipeline step.
func (s *LocalSink) Export(
	path string,
	rec record.CanonicalVendorRecord,
) (WriteResult, failure.ClassifiedError) {
	return s.writeRecorded(path, rec)
}

func (s *LocalSink) writeRecorded(
	fullPath string,
	rec record.CanonicalVendorRecord,
) (WriteResult, failure.ClassifiedError) {
	writeResult, err := write(fullPath, rec)
	if err != nil {
		var storageError *StorageError
		errors.As(err, &storageError)
		s.metadataSink.RecordError(
			time.Now(),
			"storage",
			"LocalSink.WriteSnapshot",
			mapStorageErrorToMetadataCause(storageError),
			err.Error(),
			[]metadata.Attribute{
				metadata.NewAttr(metadata.AttrVendor, rec.Vendor),
				metadata.NewAttr(metadata.AttrWritePath, storageError.Path),
			},
		)
		return WriteResult{}, storageError
	}
	s.metadataSink.RecordArtifact(
		metadata.ArtifactSnapshot,
		writeResult.Path(),
		[]metadata.Attribute{
			metadata.NewAttr(metadata.AttrVendor, rec.Vendor),
			metadata.NewAttr(metadata.AttrWritePath, writeResult.Path()),
		},
	)
	return writeResult, nil
}

func write(fullPath string, rec record.CanonicalVendorRecord) (WriteResult, failure.ClassifiedError) {
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return WriteResult{}, &StorageError{
			Message:   err.Error(),
			Retryable: false,
			Cause:     ErrCauseEncodeFailure,
		}
	}

	dir := filepath.Dir(fullPath)
	if err := fileutil.EnsureDir(dir); err != nil {
		return WriteResult{}, &StorageError{
			Message:   err.Error(),
			Retryable: false,
			Cause:     ErrCausePathError,
			Path:      dir,
		}
	}

	if err := fileutil.WriteFileAtomic(fullPath, data); err != nil {
		cause := StorageErrorCause(ErrCauseWriteFailure)
		retryable := false
		if errors.Is(err, syscall.ENOSPC) {
			cause = ErrCauseDiskFull
			retryable = true
		}
		return WriteResult{}, &StorageError{
			Message:   err.Error(),
			Retryable: retryable,
			Cause:     cause,
			Path:      fullPath,
		}
	}

	contentHash := hashutil.DedupKey(string(data))
	return NewWriteResult(rec.Vendor, fullPath, contentHash), nil
}

// LoadSnapshot reads one vendor's snapshot. The boolean reports whether
// a decodable snapshot existed.
func LoadSnapshot(dir string, vendor string) (record.CanonicalVendorRecord, bool) {
	data, err := os.ReadFile(SnapshotPath(dir, vendor))
	if err != nil {
		return record.CanonicalVendorRecord{}, false
	}
	var rec record.CanonicalVendorRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return record.CanonicalVendorRecord{}, false
	}
	if rec.Vendor == "" {
		rec.Vendor = vendor
	}
	return rec, true
}
