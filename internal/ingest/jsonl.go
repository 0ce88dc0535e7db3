// Package ingest turns external document sources into ordered anchor
// streams. OCR/parsing proper is an external collaborator; these loaders
// cover the two interchange shapes the engine consumes directly: JSON
// lines dumps and HTML exports.
package ingest

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/ndrozdov/anchora/internal/model"
)

// ReadJSONL reads one anchor per line. Anchors missing a doc version
// inherit docVersionID; anchors missing an ordinal take their position in
// the stream. An anchor with empty text is rejected: downstream
// classification and matching treat that as invalid input.
func ReadJSONL(r io.Reader, docVersionID string) ([]model.Anchor, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	var anchors []model.Anchor
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}

		var a model.Anchor
		if err := json.Unmarshal([]byte(text), &a); err != nil {
			return nil, fmt.Errorf("line %d: parse anchor: %w", line, err)
		}
		if strings.TrimSpace(a.TextRaw) == "" {
			return nil, fmt.Errorf("line %d: anchor %q has empty text", line, a.AnchorID)
		}
		if a.DocVersionID == "" {
			a.DocVersionID = docVersionID
		}
		if a.AnchorID == "" {
			a.AnchorID = fmt.Sprintf("a%04d", len(anchors))
		}
		if a.Ordinal == 0 {
			a.Ordinal = len(anchors)
		}
		if a.ContentType == "" {
			a.ContentType = model.ContentParagraph
		}
		anchors = append(anchors, a)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read anchors: %w", err)
	}
	return anchors, nil
}
