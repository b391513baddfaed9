package mopage

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// BlockType identifies the variant of a block. The set is closed: every
// type listed here has a registry entry providing default content, a
// renderer, and a property schema.
type BlockType string

const (
	BlockHeader   BlockType = "header"
	BlockText     BlockType = "text"
	BlockImage    BlockType = "image"
	BlockSlide    BlockType = "slide"
	BlockGallery  BlockType = "gallery"
	BlockVideo    BlockType = "video"
	BlockSchedule BlockType = "schedule"
	BlockList     BlockType = "list"
	BlockMap      BlockType = "map"
	BlockLink     BlockType = "link"
	BlockDivider  BlockType = "divider"
)

// BlockTypes returns all known variants in toolbar order.
func BlockTypes() []BlockType {
	return []BlockType{
		BlockHeader, BlockText, BlockImage, BlockSlide, BlockGallery,
		BlockVideo, BlockSchedule, BlockList, BlockMap, BlockLink,
		BlockDivider,
	}
}

// Style holds the optional presentation overrides of a block. An empty
// field means "use the variant default" at render time.
type Style struct {
	Color                string `json:"color,omitempty" yaml:"color,omitempty"`
	BackgroundColor      string `json:"backgroundColor,omitempty" yaml:"backgroundColor,omitempty"`
	TextAlign            string `json:"textAlign,omitempty" yaml:"textAlign,omitempty"`
	FontWeight           string `json:"fontWeight,omitempty" yaml:"fontWeight,omitempty"`
	FontSize             string `json:"fontSize,omitempty" yaml:"fontSize,omitempty"`
	Width                string `json:"width,omitempty" yaml:"width,omitempty"`
	HoverBackgroundColor string `json:"hoverBackgroundColor,omitempty" yaml:"hoverBackgroundColor,omitempty"`
}

// IsZero reports whether no override is set.
func (s Style) IsZero() bool {
	return s == Style{}
}

// Content is the variant-specific payload of a block. The concrete type is
// fully determined by the block's BlockType; the renderer and the schema
// resolver both dispatch through the registry so the mapping cannot drift.
type Content interface {
	isContent()
}

// TextContent is the payload of header, text, image and video blocks: a
// single string (markup, image source, or embed URL depending on variant).
type TextContent string

func (TextContent) isContent() {}

// GalleryContent is a flat list of image sources.
type GalleryContent []string

func (GalleryContent) isContent() {}

// SlideContent is a cycling image carousel with a per-block transition
// duration. Legacy documents stored slides as a bare image array; see
// Block.UnmarshalJSON for the normalization.
type SlideContent struct {
	Images          []string `json:"images"`
	DurationSeconds float64  `json:"durationSeconds"`
}

func (SlideContent) isContent() {}

// ScheduleContent describes a single event. Start and End use the
// datetime-local format ("2006-01-02T15:04"); empty means unset.
type ScheduleContent struct {
	Title string `json:"title"`
	Start string `json:"start"`
	End   string `json:"end"`
}

func (ScheduleContent) isContent() {}

// ListItem is one label/value row of a list block.
type ListItem struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// ListContent is an ordered sequence of label/value rows.
type ListContent []ListItem

func (ListContent) isContent() {}

// MapContent renders outbound links to map providers for an address.
type MapContent struct {
	Title   string `json:"title"`
	Address string `json:"address"`
}

func (MapContent) isContent() {}

// LinkContent is a call-to-action button.
type LinkContent struct {
	Text string `json:"text"`
	URL  string `json:"url"`
}

func (LinkContent) isContent() {}

// Block is one addressable content unit on a page.
type Block struct {
	ID      string    `json:"id"`
	Type    BlockType `json:"type"`
	Content Content   `json:"content,omitempty"`
	Style   Style     `json:"style,omitempty"`

	// Link is the optional outbound hyperlink of an image block. It is a
	// first-class attribute, deliberately outside Content and Style.
	Link string `json:"link,omitempty"`
}

// NewID returns a fresh block identifier. IDs must stay unique within a
// document for its whole lifetime, so a random UUID is used rather than a
// counter that would collide across load/save cycles.
func NewID() string {
	return "block_" + uuid.NewString()
}

// NewBlock constructs a block of the given variant with a fresh ID, the
// variant's default content and no style overrides. Unknown variants get
// empty string content with the tag preserved; creation never fails.
func NewBlock(t BlockType) *Block {
	return &Block{
		ID:      NewID(),
		Type:    t,
		Content: defaultContent(t),
	}
}

// blockJSON is the wire shape of a block. Content is kept raw so it can be
// decoded according to Type.
type blockJSON struct {
	ID      string          `json:"id"`
	Type    BlockType       `json:"type"`
	Content json.RawMessage `json:"content,omitempty"`
	Style   *Style          `json:"style,omitempty"`
	Link    string          `json:"link,omitempty"`
}

// MarshalJSON emits the historical wire format: string content for textual
// variants, arrays for gallery/list, objects for the structured variants.
func (b *Block) MarshalJSON() ([]byte, error) {
	out := blockJSON{ID: b.ID, Type: b.Type, Link: b.Link}
	if !b.Style.IsZero() {
		s := b.Style
		out.Style = &s
	}
	if b.Content != nil {
		raw, err := json.Marshal(b.Content)
		if err != nil {
			return nil, fmt.Errorf("marshal %s content: %w", b.Type, err)
		}
		out.Content = raw
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes the content payload according to the block type.
// Malformed or legacy payloads degrade to the variant default instead of
// failing: a single bad block must not take down the whole document.
func (b *Block) UnmarshalJSON(data []byte) error {
	var in blockJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	b.ID = in.ID
	b.Type = in.Type
	b.Link = in.Link
	if in.Style != nil {
		b.Style = *in.Style
	} else {
		b.Style = Style{}
	}
	b.Content = decodeContent(in.Type, in.Content)
	return nil
}

// decodeContent interprets a raw content payload for a variant. It is
// tolerant by design; anything it cannot make sense of becomes the variant
// default.
func decodeContent(t BlockType, raw json.RawMessage) Content {
	if len(raw) == 0 {
		return defaultContent(t)
	}
	switch t {
	case BlockHeader, BlockText, BlockImage, BlockVideo:
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			return TextContent(s)
		}
	case BlockGallery:
		var imgs []string
		if err := json.Unmarshal(raw, &imgs); err == nil {
			return GalleryContent(imgs)
		}
	case BlockSlide:
		var sc SlideContent
		if err := json.Unmarshal(raw, &sc); err == nil && sc.Images != nil {
			return normalizeSlide(sc)
		}
		// Legacy shape: a bare array of image sources.
		var imgs []string
		if err := json.Unmarshal(raw, &imgs); err == nil {
			return normalizeSlide(SlideContent{Images: imgs})
		}
	case BlockSchedule:
		var sc ScheduleContent
		if err := json.Unmarshal(raw, &sc); err == nil {
			return sc
		}
	case BlockList:
		var items []ListItem
		if err := json.Unmarshal(raw, &items); err == nil {
			return ListContent(items)
		}
	case BlockMap:
		var mc MapContent
		if err := json.Unmarshal(raw, &mc); err == nil {
			return mc
		}
	case BlockLink:
		var lc LinkContent
		if err := json.Unmarshal(raw, &lc); err == nil {
			return lc
		}
	case BlockDivider:
		return nil
	default:
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			return TextContent(s)
		}
	}
	return defaultContent(t)
}

// Slide duration bounds (seconds) for the carousel transition interval.
const (
	SlideMinDuration     = 0.5
	SlideMaxDuration     = 7.0
	SlideDefaultDuration = 3.0
)

// normalizeSlide clamps the duration into the supported range and fills in
// the default for legacy content that carried none.
func normalizeSlide(sc SlideContent) SlideContent {
	switch {
	case sc.DurationSeconds == 0:
		sc.DurationSeconds = SlideDefaultDuration
	case sc.DurationSeconds < SlideMinDuration:
		sc.DurationSeconds = SlideMinDuration
	case sc.DurationSeconds > SlideMaxDuration:
		sc.DurationSeconds = SlideMaxDuration
	}
	if sc.Images == nil {
		sc.Images = []string{}
	}
	return sc
}
