package model

// Anchor is the atomic structural unit of a document version. Anchors are
// produced by ingestion/OCR, are immutable once a version is fully ingested,
// and are only destroyed by cascading deletion of their version.
type Anchor struct {
	AnchorID     string      `json:"anchor_id"`               // Stable within one document version
	DocVersionID string      `json:"doc_version_id"`          // Owning version
	SectionPath  string      `json:"section_path,omitempty"`  // Hierarchical position, e.g. "3/3.1"
	ContentType  ContentType `json:"content_type"`            // Structural kind of the unit
	Ordinal      int         `json:"ordinal"`                 // Position in document order
	TextRaw      string      `json:"text_raw"`                // Raw extracted text
	LocationJSON string      `json:"location_json,omitempty"` // Page/bbox or offset as JSON
	Confidence   *float64    `json:"confidence,omitempty"`    // OCR confidence, if known
}

// ContentType classifies the structural kind of an anchor
type ContentType string

const (
	ContentParagraph ContentType = "paragraph"
	ContentHeading   ContentType = "heading"
	ContentTable     ContentType = "table"
	ContentList      ContentType = "list"
	ContentFigure    ContentType = "figure"
)

// ParseContentType converts a string to a ContentType, defaulting to paragraph
func ParseContentType(s string) ContentType {
	switch ContentType(s) {
	case ContentHeading, ContentTable, ContentList, ContentFigure:
		return ContentType(s)
	default:
		return ContentParagraph
	}
}

// DocType identifies the kind of regulatory document
type DocType string

const (
	DocTypeProtocol DocType = "protocol" // Clinical trial protocol
	DocTypeICF      DocType = "icf"      // Informed consent form
	DocTypeCSR      DocType = "csr"      // Clinical study report
)

// Language is a supported recipe/classification language
type Language string

const (
	LangRU Language = "ru"
	LangEN Language = "en"
)
