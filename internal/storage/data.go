package storage

// Persistence

type WriteResult struct {
	vendor      string
	path        string
	contentHash string
}

func NewWriteResult(
	vendor string,
	path string,
	contentHash string,
) WriteResult {
	return WriteResult{
		vendor:      vendor,
		path:        path,
		contentHash: contentHash,
	}
}

func (w *WriteResult) Vendor() string {
	return w.vendor
}

func (w *WriteResult) Path() string {
	return w.path
}

func (w *WriteResult) ContentHash() string {
	return w.contentHash
}
