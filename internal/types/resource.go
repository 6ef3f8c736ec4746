package types

import (
	"fmt"
	"path"
	"strings"
	"unicode"
)

// MosaicoURLSchema is the scheme resources are addressable under:
// mosaico:/<locator>.
const MosaicoURLSchema = "mosaico"

// sanitizeChars is the fixed set of punctuation stripped from a raw
// resource name during sanitization, in addition to whitespace and a
// leading slash.
var sanitizeChars = []string{"!", "\"", "'", "*", "£", "$", "%", "&", "."}

// SanitizeName normalizes a raw resource name into a canonical locator:
// strip whitespace, drop every leading slash, replace non-ASCII runes
// with '?', and remove a fixed punctuation set. Idempotent (P7).
func SanitizeName(name string) string {
	s := strings.ReplaceAll(name, " ", "")
	s = strings.TrimSpace(s)
	s = strings.TrimLeft(s, "/")

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r > 127 {
			b.WriteByte('?')
		} else {
			b.WriteRune(r)
		}
	}
	s = b.String()

	for _, c := range sanitizeChars {
		s = strings.ReplaceAll(s, c, "")
	}
	// Removing punctuation can expose a new leading slash or edge
	// whitespace ("!/a" becomes "/a"), so trim once more at the end.
	s = strings.TrimLeftFunc(s, func(r rune) bool { return r == '/' || unicode.IsSpace(r) })
	return strings.TrimRightFunc(s, unicode.IsSpace)
}

// ResourceType distinguishes sequence and topic locators for Resource.
type ResourceType int

const (
	ResourceTypeSequence ResourceType = iota
	ResourceTypeTopic
)

// Resource is implemented by both locator kinds, giving shared path,
// URL, and containment helpers.
type Resource interface {
	fmt.Stringer
	Name() string
	ResourceType() ResourceType
	Path() string
	PathMetadata() string
	URL() (string, error)
	IsSubResource(parent Resource) bool
}

func url(name string) (string, error) {
	return fmt.Sprintf("%s:/%s", MosaicoURLSchema, name), nil
}

func isSubResource(self, parent Resource) bool {
	return strings.HasPrefix(self.Name(), parent.Name())
}

// SequenceResourceLocator identifies a sequence.
type SequenceResourceLocator struct {
	locator string
}

// NewSequenceLocator sanitizes raw and wraps it as a sequence locator.
func NewSequenceLocator(raw string) SequenceResourceLocator {
	return SequenceResourceLocator{locator: SanitizeName(raw)}
}

func (l SequenceResourceLocator) Name() string               { return l.locator }
func (l SequenceResourceLocator) ResourceType() ResourceType  { return ResourceTypeSequence }
func (l SequenceResourceLocator) Path() string                { return l.locator }
func (l SequenceResourceLocator) PathMetadata() string {
	return path.Join(l.locator, "metadata.json")
}
func (l SequenceResourceLocator) URL() (string, error) { return url(l.locator) }
func (l SequenceResourceLocator) IsSubResource(parent Resource) bool {
	return isSubResource(l, parent)
}
func (l SequenceResourceLocator) String() string {
	return fmt.Sprintf("[sequence|%s]", l.locator)
}

// TopicResourceLocator identifies a topic, optionally scoped to a
// timestamp range (used when formatting a GetFlightInfo/ticket request).
type TopicResourceLocator struct {
	locator        string
	TimestampRange *TimestampRange
}

// NewTopicLocator sanitizes raw and wraps it as a topic locator.
func NewTopicLocator(raw string) TopicResourceLocator {
	return TopicResourceLocator{locator: SanitizeName(raw)}
}

// WithTimestampRange returns a copy of l scoped to range.
func (l TopicResourceLocator) WithTimestampRange(r TimestampRange) TopicResourceLocator {
	l.TimestampRange = &r
	return l
}

func (l TopicResourceLocator) Name() string              { return l.locator }
func (l TopicResourceLocator) ResourceType() ResourceType { return ResourceTypeTopic }
func (l TopicResourceLocator) Path() string               { return l.locator }
func (l TopicResourceLocator) PathMetadata() string {
	return path.Join(l.locator, "metadata.json")
}
func (l TopicResourceLocator) PathManifest() string {
	return path.Join(l.locator, "manifest.json")
}

// PathData returns the artifact path for chunk index chunkNumber with the
// given file extension, encoded as data-<5-digit-zero-padded>.<ext> (I5).
func (l TopicResourceLocator) PathData(chunkNumber int, extension string) string {
	filename := fmt.Sprintf("data-%05d.%s", chunkNumber, extension)
	return path.Join(l.locator, filename)
}

func (l TopicResourceLocator) URL() (string, error) { return url(l.locator) }
func (l TopicResourceLocator) IsSubResource(parent Resource) bool {
	return isSubResource(l, parent)
}
func (l TopicResourceLocator) String() string {
	if l.TimestampRange != nil {
		return fmt.Sprintf("[topic|%s|%s]", l.locator, l.TimestampRange)
	}
	return fmt.Sprintf("[topic|%s]", l.locator)
}
