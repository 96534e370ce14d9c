// Package corpus reads SMS backup exports into raw messages, recovering from
// broken markup one element at a time.
package corpus

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/vanshika/momoledger/internal/domain"
)

// ErrSourceUnreadable indicates the corpus could not be opened or read at all.
var ErrSourceUnreadable = errors.New("corpus source unreadable")

const elementName = "sms"

var (
	commentPattern  = regexp.MustCompile(`(?s)<!--.*?-->`)
	startTagPattern = regexp.MustCompile(`<sms[\s/>]`)
)

// Skipped records an element that could not be decoded.
type Skipped struct {
	Element int    `json:"element"`
	Reason  string `json:"reason"`
}

// Document is the outcome of loading one corpus.
type Document struct {
	Messages []domain.RawMessage
	Skipped  []Skipped
	// ElementsSeen counts every <sms> start tag, decoded or not.
	ElementsSeen int
}

// Load reads the corpus at path. Only a missing or unreadable file is an error.
func Load(path string) (Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Document{}, fmt.Errorf("%w: %s: %v", ErrSourceUnreadable, path, err)
	}
	return Parse(data), nil
}

// Read loads a corpus from r.
func Read(r io.Reader) (Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Document{}, fmt.Errorf("%w: %v", ErrSourceUnreadable, err)
	}
	return Parse(data), nil
}

// Parse splits data at each <sms start tag and decodes the elements
// independently, so a broken element never takes its neighbours down with it.
func Parse(data []byte) Document {
	data = bytes.ToValidUTF8(data, []byte("�"))
	data = commentPattern.ReplaceAll(data, nil)

	starts := startTagPattern.FindAllIndex(data, -1)
	doc := Document{
		Messages:     make([]domain.RawMessage, 0, len(starts)),
		ElementsSeen: len(starts),
	}

	for i, loc := range starts {
		end := len(data)
		if i+1 < len(starts) {
			end = starts[i+1][0]
		}

		msg, err := decodeElement(data[loc[0]:end])
		if err != nil {
			doc.Skipped = append(doc.Skipped, Skipped{Element: i, Reason: err.Error()})
			continue
		}
		msg.Element = i
		doc.Messages = append(doc.Messages, msg)
	}

	return doc
}

func decodeElement(fragment []byte) (domain.RawMessage, error) {
	decoder := xml.NewDecoder(bytes.NewReader(fragment))
	decoder.Strict = false
	decoder.Entity = xml.HTMLEntity

	for {
		tok, err := decoder.RawToken()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return domain.RawMessage{}, errors.New("element start tag is incomplete")
			}
			return domain.RawMessage{}, err
		}
		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		if start.Name.Local != elementName {
			return domain.RawMessage{}, fmt.Errorf("unexpected element <%s>", start.Name.Local)
		}
		return messageFromAttrs(start.Attr), nil
	}
}

func messageFromAttrs(attrs []xml.Attr) domain.RawMessage {
	var msg domain.RawMessage
	for _, attr := range attrs {
		switch attr.Name.Local {
		case "body":
			msg.Body = attr.Value
		case "date":
			if ms, err := strconv.ParseInt(strings.TrimSpace(attr.Value), 10, 64); err == nil {
				msg.TimestampMillis = &ms
			}
		}
	}
	return msg
}
