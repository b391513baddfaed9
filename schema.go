package mopage

// Control names the editor widget a field should be rendered with. The
// editor front end switches on these strings, so they are part of the
// wire contract with the property panel.
type Control string

const (
	ControlText      Control = "text"
	ControlMultiline Control = "multiline-text"
	ControlColor     Control = "color"
	ControlSelect    Control = "select"
	ControlDatetime  Control = "datetime"
	ControlNumber    Control = "number"
	ControlFileOrURL Control = "file-or-url"
	// Repeated controls edit a whole array field: each entry gets its own
	// row plus add/remove affordances, round-tripped through the array
	// operations rather than whole-field writes.
	ControlImageList    Control = "repeated-image-list"
	ControlLabelValList Control = "repeated-label-value-list"
)

// Field describes one editable property of the selected block: where it
// lives (a dotted path the dispatcher understands), how to label it, which
// widget edits it, and the current value to prefill.
type Field struct {
	Path    string   `json:"path"`
	Label   string   `json:"label"`
	Control Control  `json:"control"`
	Value   any      `json:"value"`
	Options []string `json:"options,omitempty"`
	Min     float64  `json:"min,omitempty"`
	Max     float64  `json:"max,omitempty"`
	Step    float64  `json:"step,omitempty"`
}

// Fields resolves the ordered property descriptors for a block. Values are
// read through the same accessors the dispatcher writes through, so the
// panel always round-trips. A nil block (nothing selected) yields page
// settings handled elsewhere; here it is just empty.
func Fields(b *Block) []Field {
	if b == nil {
		return nil
	}
	v, ok := variants[b.Type]
	if !ok {
		return nil
	}
	return v.fields(b)
}

// fieldAt builds a Field prefilled from the block via the accessor table.
func fieldAt(b *Block, path, label string, control Control) Field {
	f := Field{Path: path, Label: label, Control: control}
	if acc, ok := lookupAccessor(b.Type, path); ok {
		f.Value = acc.get(b)
	}
	return f
}

var alignOptions = []string{"left", "center", "right"}
var weightOptions = []string{"normal", "bold"}

// textStyleFields are the shared typography controls.
func textStyleFields(b *Block) []Field {
	align := fieldAt(b, "style.textAlign", "Alignment", ControlSelect)
	align.Options = alignOptions
	weight := fieldAt(b, "style.fontWeight", "Weight", ControlSelect)
	weight.Options = weightOptions
	return []Field{
		fieldAt(b, "style.color", "Text color", ControlColor),
		fieldAt(b, "style.backgroundColor", "Background", ControlColor),
		align,
		weight,
		fieldAt(b, "style.fontSize", "Font size", ControlText),
	}
}

func headerFields(b *Block) []Field {
	return append([]Field{
		fieldAt(b, "content", "Heading", ControlText),
	}, textStyleFields(b)...)
}

func textFields(b *Block) []Field {
	return append([]Field{
		fieldAt(b, "content", "Text", ControlMultiline),
	}, textStyleFields(b)...)
}

func imageFields(b *Block) []Field {
	return []Field{
		fieldAt(b, "content", "Image", ControlFileOrURL),
		fieldAt(b, "link", "Link URL", ControlText),
		fieldAt(b, "style.width", "Width", ControlText),
	}
}

func videoFields(b *Block) []Field {
	return []Field{
		fieldAt(b, "content", "Embed URL", ControlText),
	}
}

func slideFields(b *Block) []Field {
	dur := fieldAt(b, "content.durationSeconds", "Slide duration (s)", ControlNumber)
	dur.Min = SlideMinDuration
	dur.Max = SlideMaxDuration
	dur.Step = 0.5
	return []Field{
		fieldAt(b, "content.images", "Images", ControlImageList),
		dur,
	}
}

func galleryFields(b *Block) []Field {
	return []Field{
		fieldAt(b, "content", "Images", ControlImageList),
	}
}

func scheduleFields(b *Block) []Field {
	return []Field{
		fieldAt(b, "content.title", "Event title", ControlText),
		fieldAt(b, "content.start", "Starts", ControlDatetime),
		fieldAt(b, "content.end", "Ends", ControlDatetime),
		fieldAt(b, "style.color", "Text color", ControlColor),
		fieldAt(b, "style.backgroundColor", "Background", ControlColor),
	}
}

func listFields(b *Block) []Field {
	return []Field{
		fieldAt(b, "content", "Items", ControlLabelValList),
		fieldAt(b, "style.color", "Text color", ControlColor),
	}
}

func mapFields(b *Block) []Field {
	return []Field{
		fieldAt(b, "content.title", "Place name", ControlText),
		fieldAt(b, "content.address", "Address", ControlText),
	}
}

func linkFields(b *Block) []Field {
	return []Field{
		fieldAt(b, "content.text", "Button text", ControlText),
		fieldAt(b, "content.url", "Target URL", ControlText),
		fieldAt(b, "style.backgroundColor", "Button color", ControlColor),
		fieldAt(b, "style.hoverBackgroundColor", "Hover color", ControlColor),
		fieldAt(b, "style.color", "Text color", ControlColor),
	}
}

func dividerFields(b *Block) []Field {
	return []Field{
		fieldAt(b, "style.backgroundColor", "Line color", ControlColor),
	}
}

// PageFields are the page-level settings shown when no block is selected.
func PageFields(d *Document) []Field {
	return []Field{
		{Path: "title", Label: "Page title", Control: ControlText, Value: d.Title},
		{Path: "globalStyle.backgroundColor", Label: "Page background", Control: ControlColor, Value: d.Global.BackgroundColor},
	}
}
