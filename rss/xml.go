package rss

import (
	"encoding/xml"
	"errors"
	"fmt"
)

// Namespace URIs declared on every generated document.
const (
	contentNamespace = "http://purl.org/rss/1.0/modules/content/"
	mediaNamespace   = "http://search.yahoo.com/mrss/"
	dcNamespace      = "http://purl.org/dc/elements/1.1/"
	atomNamespace    = "http://www.w3.org/2005/Atom"
)

// ErrSerialize marks a failure while rendering the assembled document to
// XML. Structurally unreachable with well-formed inputs, but surfaced as
// its own kind instead of emitting a truncated document.
var ErrSerialize = errors.New("feed serialization failed")

// Document is an RSS 2.0 document with the content, media, dc and atom
// extension namespaces declared up front.
type Document struct {
	XMLName   xml.Name `xml:"rss"`
	Version   string   `xml:"version,attr"`
	ContentNS string   `xml:"xmlns:content,attr"`
	MediaNS   string   `xml:"xmlns:media,attr"`
	DcNS      string   `xml:"xmlns:dc,attr"`
	AtomNS    string   `xml:"xmlns:atom,attr"`
	Channel   *Channel `xml:"channel"`
}

// Channel holds the feed-level metadata and the ordered item sequence
type Channel struct {
	Title       string        `xml:"title"`
	Link        string        `xml:"link"`
	Description string        `xml:"description"`
	Generator   string        `xml:"generator"`
	TTL         int           `xml:"ttl"`
	Image       *ChannelImage `xml:"image,omitempty"`
	AtomLink    *AtomLink     `xml:"atom:link"`
	Items       []*Item       `xml:"item"`
}

// ChannelImage is the channel-level image element
type ChannelImage struct {
	Url   string `xml:"url"`
	Title string `xml:"title"`
	Link  string `xml:"link"`
}

// AtomLink is the self-referencing atom:link element
type AtomLink struct {
	Href string `xml:"href,attr"`
	Rel  string `xml:"rel,attr"`
	Type string `xml:"type,attr"`
}

// Item is one entry of the feed. Custom elements appended by feed.item
// handlers are serialized after the fixed element set.
type Item struct {
	Title       string         `xml:"title"`
	Description string         `xml:"description"`
	Link        string         `xml:"link"`
	Guid        Guid           `xml:"guid"`
	Creator     string         `xml:"dc:creator,omitempty"`
	Categories  []string       `xml:"category"`
	PubDate     string         `xml:"pubDate"`
	Media       *MediaContent  `xml:"media:content,omitempty"`
	Content     *EncodedContent
	Custom      []Element
}

// Guid carries the content id; it is never a permalink
type Guid struct {
	IsPermaLink string `xml:"isPermaLink,attr"`
	Value       string `xml:",chardata"`
}

// MediaContent is the structured media reference for the feature image
type MediaContent struct {
	XMLName xml.Name `xml:"media:content"`
	Url     string   `xml:"url,attr"`
	Medium  string   `xml:"medium,attr"`
}

// EncodedContent wraps the item HTML body verbatim as character data so
// the markup is not escaped a second time.
type EncodedContent struct {
	XMLName xml.Name `xml:"content:encoded"`
	Text    string   `xml:",cdata"`
}

// Element is an extension-supplied XML element
type Element struct {
	XMLName xml.Name
	Attrs   []xml.Attr `xml:",any,attr"`
	Text    string     `xml:",chardata"`
}

// newDocument returns an empty document with the fixed envelope set up
func newDocument(channel *Channel) *Document {
	return &Document{
		Version:   "2.0",
		ContentNS: contentNamespace,
		MediaNS:   mediaNamespace,
		DcNS:      dcNamespace,
		AtomNS:    atomNamespace,
		Channel:   channel,
	}
}

// Serialize renders the document to its wire text form
func (d *Document) Serialize() (string, error) {
	out, err := xml.MarshalIndent(d, "", "    ")
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrSerialize, err)
	}
	return xml.Header + string(out), nil
}
