package domain

// RawUpload represents opaque bytes received from an upload collaborator
// before extraction. The declared MIME type selects the extraction chain;
// it is not trusted beyond that.
type RawUpload struct {
	// Filename is the name the client supplied for the upload.
	Filename string

	// MIMEType is the declared content type (e.g., "application/pdf").
	// When empty, it is inferred from the filename extension.
	MIMEType string

	// Content is the raw bytes.
	Content []byte
}

// UploadReceipt is returned to the caller after a successful upload.
type UploadReceipt struct {
	// DocumentID identifies the newly indexed document.
	DocumentID string

	// ChunkCount is the number of chunks indexed for the document.
	ChunkCount int
}
