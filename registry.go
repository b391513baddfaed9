package mopage

import (
	"strconv"
)

// accessor is a typed lens for one editable field of a block. Setters
// report whether the value was accepted; rejected values leave the block
// untouched.
type accessor struct {
	get func(b *Block) any
	set func(b *Block, v any) bool
}

// variant bundles everything the three dispatch sites need for one block
// type. Renderer, schema resolver and default-content factory all go
// through this table, so they cannot disagree about content shapes.
type variant struct {
	defaultContent func() Content
	render         func(b *Block) string
	fields         func(b *Block) []Field
	accessors      map[string]accessor
}

// defaultContent returns the payload a freshly added block of this type
// starts with. Unknown types degrade to empty string content.
func defaultContent(t BlockType) Content {
	if v, ok := variants[t]; ok {
		return v.defaultContent()
	}
	return TextContent("")
}

// lookupAccessor resolves a dotted path against a block's variant. Style
// paths are shared by every variant; "link" is image-only; everything else
// is variant content.
func lookupAccessor(t BlockType, path string) (accessor, bool) {
	if acc, ok := styleAccessors[path]; ok {
		return acc, true
	}
	if t == BlockImage && path == "link" {
		return linkAccessor, true
	}
	v, ok := variants[t]
	if !ok {
		return accessor{}, false
	}
	acc, ok := v.accessors[path]
	return acc, ok
}

// asString coerces an edit-event value to a string. Only real strings are
// accepted; the schema resolver is responsible for constructing well-typed
// events, so anything else is rejected rather than stringified.
func asString(v any) (string, bool) {
	s, ok := v.(string)
	return s, ok
}

// asFloat coerces an edit-event value to a float64. JSON decoding hands
// numbers over as float64, but form posts arrive as strings.
func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil
	}
	return 0, false
}

// asStringSlice coerces a whole-array edit value to []string.
func asStringSlice(v any) ([]string, bool) {
	switch s := v.(type) {
	case []string:
		return s, true
	case []any:
		out := make([]string, 0, len(s))
		for _, item := range s {
			str, ok := item.(string)
			if !ok {
				return nil, false
			}
			out = append(out, str)
		}
		return out, true
	}
	return nil, false
}

// asListItems coerces a whole-array edit value to []ListItem.
func asListItems(v any) ([]ListItem, bool) {
	switch items := v.(type) {
	case []ListItem:
		return items, true
	case ListContent:
		return items, true
	case []any:
		out := make([]ListItem, 0, len(items))
		for _, item := range items {
			m, ok := item.(map[string]any)
			if !ok {
				return nil, false
			}
			label, _ := m["label"].(string)
			value, _ := m["value"].(string)
			out = append(out, ListItem{Label: label, Value: value})
		}
		return out, true
	}
	return nil, false
}

// styleString builds an accessor for one Style field.
func styleString(get func(*Style) *string) accessor {
	return accessor{
		get: func(b *Block) any { return *get(&b.Style) },
		set: func(b *Block, v any) bool {
			s, ok := asString(v)
			if !ok {
				return false
			}
			*get(&b.Style) = s
			return true
		},
	}
}

// styleAccessors covers the shared presentation fields of every variant.
var styleAccessors = map[string]accessor{
	"style.color":                styleString(func(s *Style) *string { return &s.Color }),
	"style.backgroundColor":      styleString(func(s *Style) *string { return &s.BackgroundColor }),
	"style.textAlign":            styleString(func(s *Style) *string { return &s.TextAlign }),
	"style.fontWeight":           styleString(func(s *Style) *string { return &s.FontWeight }),
	"style.fontSize":             styleString(func(s *Style) *string { return &s.FontSize }),
	"style.width":                styleString(func(s *Style) *string { return &s.Width }),
	"style.hoverBackgroundColor": styleString(func(s *Style) *string { return &s.HoverBackgroundColor }),
}

// linkAccessor edits the image block's outbound hyperlink.
var linkAccessor = accessor{
	get: func(b *Block) any { return b.Link },
	set: func(b *Block, v any) bool {
		s, ok := asString(v)
		if !ok {
			return false
		}
		b.Link = s
		return true
	},
}

// textContent builds the "content" accessor shared by the string-payload
// variants.
var textContentAccessor = accessor{
	get: func(b *Block) any {
		s, _ := b.Content.(TextContent)
		return string(s)
	},
	set: func(b *Block, v any) bool {
		s, ok := asString(v)
		if !ok {
			return false
		}
		b.Content = TextContent(s)
		return true
	},
}

// scheduleField builds an accessor for one ScheduleContent field,
// re-initializing the payload if a mismatched shape slipped in.
func scheduleField(get func(*ScheduleContent) *string) accessor {
	return accessor{
		get: func(b *Block) any {
			sc, _ := b.Content.(ScheduleContent)
			return *get(&sc)
		},
		set: func(b *Block, v any) bool {
			s, ok := asString(v)
			if !ok {
				return false
			}
			sc, _ := b.Content.(ScheduleContent)
			*get(&sc) = s
			b.Content = sc
			return true
		},
	}
}

func mapField(get func(*MapContent) *string) accessor {
	return accessor{
		get: func(b *Block) any {
			mc, _ := b.Content.(MapContent)
			return *get(&mc)
		},
		set: func(b *Block, v any) bool {
			s, ok := asString(v)
			if !ok {
				return false
			}
			mc, _ := b.Content.(MapContent)
			*get(&mc) = s
			b.Content = mc
			return true
		},
	}
}

func linkField(get func(*LinkContent) *string) accessor {
	return accessor{
		get: func(b *Block) any {
			lc, _ := b.Content.(LinkContent)
			return *get(&lc)
		},
		set: func(b *Block, v any) bool {
			s, ok := asString(v)
			if !ok {
				return false
			}
			lc, _ := b.Content.(LinkContent)
			*get(&lc) = s
			b.Content = lc
			return true
		},
	}
}

// variants is the single source of truth for variant dispatch. Render and
// schema functions live in render.go and schema.go; those reference
// lookupAccessor, which reads this map, so the table is populated in init
// rather than a package-level initializer to keep the reference graph
// acyclic at compile time.
var variants map[BlockType]variant

func init() {
	variants = map[BlockType]variant{
		BlockHeader: {
			defaultContent: func() Content { return TextContent("New heading") },
			render:         renderHeader,
			fields:         headerFields,
			accessors:      map[string]accessor{"content": textContentAccessor},
		},
		BlockText: {
			defaultContent: func() Content { return TextContent("Enter your text here.") },
			render:         renderText,
			fields:         textFields,
			accessors:      map[string]accessor{"content": textContentAccessor},
		},
		BlockImage: {
			defaultContent: func() Content { return TextContent("https://via.placeholder.com/400x200") },
			render:         renderImage,
			fields:         imageFields,
			accessors:      map[string]accessor{"content": textContentAccessor},
		},
		BlockVideo: {
			defaultContent: func() Content { return TextContent("https://www.youtube.com/embed/dQw4w9WgXcQ") },
			render:         renderVideo,
			fields:         videoFields,
			accessors:      map[string]accessor{"content": textContentAccessor},
		},
		BlockSlide: {
			defaultContent: func() Content {
				return SlideContent{Images: []string{}, DurationSeconds: SlideDefaultDuration}
			},
			render: renderSlide,
			fields: slideFields,
			accessors: map[string]accessor{
				"content.durationSeconds": {
					get: func(b *Block) any {
						sc, _ := b.Content.(SlideContent)
						return normalizeSlide(sc).DurationSeconds
					},
					set: func(b *Block, v any) bool {
						f, ok := asFloat(v)
						if !ok {
							return false
						}
						sc, _ := b.Content.(SlideContent)
						sc.DurationSeconds = f
						b.Content = normalizeSlide(sc)
						return true
					},
				},
				"content.images": {
					get: func(b *Block) any {
						sc, _ := b.Content.(SlideContent)
						return normalizeSlide(sc).Images
					},
					set: func(b *Block, v any) bool {
						imgs, ok := asStringSlice(v)
						if !ok {
							return false
						}
						sc, _ := b.Content.(SlideContent)
						sc.Images = imgs
						b.Content = normalizeSlide(sc)
						return true
					},
				},
			},
		},
		BlockGallery: {
			defaultContent: func() Content { return GalleryContent{} },
			render:         renderGallery,
			fields:         galleryFields,
			accessors: map[string]accessor{
				"content": {
					get: func(b *Block) any {
						gc, _ := b.Content.(GalleryContent)
						return []string(gc)
					},
					set: func(b *Block, v any) bool {
						imgs, ok := asStringSlice(v)
						if !ok {
							return false
						}
						b.Content = GalleryContent(imgs)
						return true
					},
				},
			},
		},
		BlockSchedule: {
			defaultContent: func() Content { return ScheduleContent{Title: "New event"} },
			render:         renderSchedule,
			fields:         scheduleFields,
			accessors: map[string]accessor{
				"content.title": scheduleField(func(sc *ScheduleContent) *string { return &sc.Title }),
				"content.start": scheduleField(func(sc *ScheduleContent) *string { return &sc.Start }),
				"content.end":   scheduleField(func(sc *ScheduleContent) *string { return &sc.End }),
			},
		},
		BlockList: {
			defaultContent: func() Content {
				return ListContent{
					{Label: "Item 1", Value: "Details 1"},
					{Label: "Item 2", Value: "Details 2"},
				}
			},
			render: renderList,
			fields: listFields,
			accessors: map[string]accessor{
				"content": {
					get: func(b *Block) any {
						lc, _ := b.Content.(ListContent)
						return []ListItem(lc)
					},
					set: func(b *Block, v any) bool {
						items, ok := asListItems(v)
						if !ok {
							return false
						}
						b.Content = ListContent(items)
						return true
					},
				},
			},
		},
		BlockMap: {
			defaultContent: func() Content { return MapContent{} },
			render:         renderMap,
			fields:         mapFields,
			accessors: map[string]accessor{
				"content.title":   mapField(func(mc *MapContent) *string { return &mc.Title }),
				"content.address": mapField(func(mc *MapContent) *string { return &mc.Address }),
			},
		},
		BlockLink: {
			defaultContent: func() Content { return LinkContent{Text: "Open link"} },
			render:         renderLink,
			fields:         linkFields,
			accessors: map[string]accessor{
				"content.text": linkField(func(lc *LinkContent) *string { return &lc.Text }),
				"content.url":  linkField(func(lc *LinkContent) *string { return &lc.URL }),
			},
		},
		BlockDivider: {
			defaultContent: func() Content { return nil },
			render:         renderDivider,
			fields:         dividerFields,
			accessors:      map[string]accessor{},
		},
	}
}
