package domain

// SourceKind discriminates the provenance of evidence behind an answer.
type SourceKind string

const (
	// SourceDocument marks evidence drawn from an uploaded document.
	SourceDocument SourceKind = "document"

	// SourceWeb marks evidence drawn from a web search result.
	SourceWeb SourceKind = "web"

	// SourceImage marks evidence drawn from a page image.
	SourceImage SourceKind = "image"
)

// Source is a provenance record attached to a generated answer.
// Exactly one of the kind-specific field groups is populated.
type Source struct {
	// Kind discriminates which fields are meaningful.
	Kind SourceKind

	// DocumentID references the contributing document (document kind).
	// An answer carries at most one document Source per distinct document,
	// even when several of its chunks contributed.
	DocumentID string

	// Title is the document filename or web result title.
	Title string

	// URL is the web result location (web kind).
	URL string

	// Snippet is a short excerpt of the contributing evidence.
	Snippet string

	// Score is the similarity score of the best contributing chunk
	// (document kind) or zero for other kinds.
	Score float64

	// Page is the page number an image was taken from (image kind).
	Page int

	// Image holds raw image bytes (image kind).
	Image []byte
}

// WebResult is a ranked snippet returned by a web search provider.
type WebResult struct {
	// Title is the result headline.
	Title string

	// URL is the result location.
	URL string

	// Snippet is the provider's excerpt for the result.
	Snippet string
}
