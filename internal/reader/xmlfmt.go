package reader

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"
)

// xmlRowTags mark one record each in tree-markup payloads.
var xmlRowTags = map[string]bool{"record": true, "row": true, "item": true}

// xmlFormat reads tree-markup: one record per matching row tag, leaf
// elements become columns, schema is the union of observed leaves.
type xmlFormat struct{}

func (xmlFormat) Tags() []string { return []string{"xml"} }

func (xmlFormat) Read(raw []byte) (*Dataset, error) {
	dec := xml.NewDecoder(bytes.NewReader(raw))

	var records []map[string]any
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("scanning document: %w", err)
		}
		start, ok := tok.(xml.StartElement)
		if !ok || !xmlRowTags[strings.ToLower(start.Name.Local)] {
			continue
		}
		rec := make(map[string]any)
		if err := collectLeaves(dec, start, rec); err != nil {
			return nil, fmt.Errorf("reading record %d: %w", len(records)+1, err)
		}
		records = append(records, rec)
	}

	if len(records) == 0 {
		return nil, fmt.Errorf("no record elements found")
	}
	return rowsFromRecords(records), nil
}

// collectLeaves consumes tokens up to the element's end, recording every
// leaf element's text under its local name.
func collectLeaves(dec *xml.Decoder, parent xml.StartElement, rec map[string]any) error {
	for {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			leaf, text, err := readElement(dec, t, rec)
			if err != nil {
				return err
			}
			if leaf {
				rec[t.Name.Local], _ = inferCell(text)
			}
		case xml.EndElement:
			if t.Name == parent.Name {
				return nil
			}
		}
	}
}

// readElement reads one element to its end. It reports whether the element
// was a leaf (character data only) along with its text; non-leaf children
// have their own leaves collected into rec.
func readElement(dec *xml.Decoder, start xml.StartElement, rec map[string]any) (bool, string, error) {
	var text strings.Builder
	leaf := true
	for {
		tok, err := dec.Token()
		if err != nil {
			return false, "", err
		}
		switch t := tok.(type) {
		case xml.CharData:
			text.Write(t)
		case xml.StartElement:
			leaf = false
			childLeaf, childText, err := readElement(dec, t, rec)
			if err != nil {
				return false, "", err
			}
			if childLeaf {
				rec[t.Name.Local], _ = inferCell(childText)
			}
		case xml.EndElement:
			if t.Name == start.Name {
				return leaf, text.String(), nil
			}
		}
	}
}
