package mopage

import (
	"encoding/json"
	"fmt"
)

// Category classifies a page in the project list.
type Category string

const (
	CategoryTeam     Category = "team"
	CategoryPersonal Category = "personal"
)

// GlobalStyle holds page-level presentation settings.
type GlobalStyle struct {
	BackgroundColor string `json:"backgroundColor,omitempty"`
}

// Direction of a block move. Moves only ever swap adjacent positions.
type Direction string

const (
	MoveUp   Direction = "up"
	MoveDown Direction = "down"
)

// Document is the full editable page state: the ordered block sequence plus
// page metadata. The sequence index is the render order; there is no
// separate z-order. A Document has exactly one writer (the dispatcher), so
// it carries no lock of its own.
type Document struct {
	// ID is the identifier assigned by the store on first save; empty for
	// a document that has never been saved.
	ID       string
	Title    string
	Author   string
	Category Category
	Global   GlobalStyle
	Blocks   []*Block

	credential string
	selected   string
}

// NewDocument creates an empty document with the given metadata. The
// credential gates later save/delete calls against the store.
func NewDocument(title, author string, category Category, credential string) *Document {
	return &Document{
		Title:      title,
		Author:     author,
		Category:   category,
		credential: credential,
	}
}

// Credential returns the access credential captured at creation or verify
// time.
func (d *Document) Credential() string { return d.credential }

// SetCredential records the credential after a successful verify round-trip.
func (d *Document) SetCredential(c string) { d.credential = c }

// Selected returns the actively selected block, or nil when the selection
// is empty (page-level settings are shown instead).
func (d *Document) Selected() *Block {
	if d.selected == "" {
		return nil
	}
	return d.Block(d.selected)
}

// SelectedID returns the id of the active selection, or "".
func (d *Document) SelectedID() string { return d.selected }

// Block returns the block with the given id, or nil.
func (d *Document) Block(id string) *Block {
	for _, b := range d.Blocks {
		if b.ID == id {
			return b
		}
	}
	return nil
}

// indexOf returns the position of a block id, or -1.
func (d *Document) indexOf(id string) int {
	for i, b := range d.Blocks {
		if b.ID == id {
			return i
		}
	}
	return -1
}

// AddBlock appends a new block of the given variant and makes it the
// active selection. The returned block lets the caller scroll it into
// view.
func (d *Document) AddBlock(t BlockType) *Block {
	b := NewBlock(t)
	d.Blocks = append(d.Blocks, b)
	d.selected = b.ID
	return b
}

// DeleteBlock removes the block with the given id. Deleting the selected
// block clears the selection; an unknown id is a no-op. Confirmation is
// the dispatcher's responsibility, not the store's.
func (d *Document) DeleteBlock(id string) bool {
	idx := d.indexOf(id)
	if idx < 0 {
		return false
	}
	d.Blocks = append(d.Blocks[:idx], d.Blocks[idx+1:]...)
	if d.selected == id {
		d.selected = ""
	}
	return true
}

// MoveBlock swaps the block with its immediate neighbor in the given
// direction. Moves past either boundary and unknown ids are no-ops.
func (d *Document) MoveBlock(id string, dir Direction) bool {
	idx := d.indexOf(id)
	if idx < 0 {
		return false
	}
	switch dir {
	case MoveUp:
		if idx == 0 {
			return false
		}
		d.Blocks[idx], d.Blocks[idx-1] = d.Blocks[idx-1], d.Blocks[idx]
	case MoveDown:
		if idx == len(d.Blocks)-1 {
			return false
		}
		d.Blocks[idx], d.Blocks[idx+1] = d.Blocks[idx+1], d.Blocks[idx]
	default:
		return false
	}
	return true
}

// SelectBlock sets the active selection. An empty id deselects; selecting
// an unknown id clears the selection rather than leaving a dangling
// reference.
func (d *Document) SelectBlock(id string) {
	if id != "" && d.Block(id) == nil {
		id = ""
	}
	d.selected = id
}

// UpdateField resolves a dotted path (one level of nesting, e.g.
// "style.color" or "content.title") against the block and assigns the
// value through the variant's typed accessor. Unknown ids, unknown paths
// and mistyped values are silent no-ops: validation happens when the
// schema resolver constructs the edit event, and writes here are
// last-write-wins.
func (d *Document) UpdateField(id, path string, value any) bool {
	b := d.Block(id)
	if b == nil {
		return false
	}
	acc, ok := lookupAccessor(b.Type, path)
	if !ok {
		return false
	}
	return acc.set(b, value)
}

// FieldValue reads a field through the same accessor used for writes.
func (d *Document) FieldValue(id, path string) (any, bool) {
	b := d.Block(id)
	if b == nil {
		return nil, false
	}
	acc, ok := lookupAccessor(b.Type, path)
	if !ok {
		return nil, false
	}
	return acc.get(b), true
}

// ArrayOp mutates an array-shaped field: push appends a value, removeAt
// deletes by index.
type ArrayOp struct {
	Push     any
	RemoveAt int
	IsRemove bool
}

// PushOp appends a value to an array field.
func PushOp(v any) ArrayOp { return ArrayOp{Push: v} }

// RemoveAtOp removes the entry at the given index.
func RemoveAtOp(i int) ArrayOp { return ArrayOp{RemoveAt: i, IsRemove: true} }

// UpdateArrayField applies an array operation to a top-level ("content")
// or one-level-nested ("content.images") array target. A target that is
// not array-shaped is re-initialized as an empty sequence first.
// Out-of-range removals and unknown ids are no-ops.
func (d *Document) UpdateArrayField(id, path string, op ArrayOp) bool {
	b := d.Block(id)
	if b == nil {
		return false
	}
	switch {
	case b.Type == BlockSlide && path == "content.images":
		sc, ok := b.Content.(SlideContent)
		if !ok {
			sc = SlideContent{Images: []string{}, DurationSeconds: SlideDefaultDuration}
		}
		imgs, ok := applyStringOp(sc.Images, op)
		if !ok {
			return false
		}
		sc.Images = imgs
		b.Content = normalizeSlide(sc)
		return true
	case b.Type == BlockGallery && path == "content":
		gc, ok := b.Content.(GalleryContent)
		if !ok {
			gc = GalleryContent{}
		}
		imgs, ok := applyStringOp(gc, op)
		if !ok {
			return false
		}
		b.Content = GalleryContent(imgs)
		return true
	case b.Type == BlockList && path == "content":
		lc, ok := b.Content.(ListContent)
		if !ok {
			lc = ListContent{}
		}
		items, ok := applyListOp(lc, op)
		if !ok {
			return false
		}
		b.Content = ListContent(items)
		return true
	}
	return false
}

func applyStringOp(items []string, op ArrayOp) ([]string, bool) {
	if op.IsRemove {
		if op.RemoveAt < 0 || op.RemoveAt >= len(items) {
			return nil, false
		}
		return append(items[:op.RemoveAt], items[op.RemoveAt+1:]...), true
	}
	s, ok := asString(op.Push)
	if !ok {
		return nil, false
	}
	return append(items, s), true
}

func applyListOp(items []ListItem, op ArrayOp) ([]ListItem, bool) {
	if op.IsRemove {
		if op.RemoveAt < 0 || op.RemoveAt >= len(items) {
			return nil, false
		}
		return append(items[:op.RemoveAt], items[op.RemoveAt+1:]...), true
	}
	switch v := op.Push.(type) {
	case ListItem:
		return append(items, v), true
	case map[string]any:
		label, _ := v["label"].(string)
		value, _ := v["value"].(string)
		return append(items, ListItem{Label: label, Value: value}), true
	}
	return nil, false
}

// body is the serialized page payload stored in the remote store's `data`
// field: the block sequence plus the global style.
type body struct {
	Blocks      []*Block    `json:"blocks"`
	GlobalStyle GlobalStyle `json:"globalStyle"`
}

// EncodeBody serializes the page body to the JSON string handed to the
// store's save action. Size enforcement happens at the store boundary,
// not here.
func (d *Document) EncodeBody() (string, error) {
	if d.Blocks == nil {
		d.Blocks = []*Block{}
	}
	raw, err := json.Marshal(body{Blocks: d.Blocks, GlobalStyle: d.Global})
	if err != nil {
		return "", fmt.Errorf("encode page body: %w", err)
	}
	return string(raw), nil
}

// DecodeBody replaces the document's blocks and global style from a stored
// body string. Legacy bodies that are a bare block array (no globalStyle
// wrapper) are accepted.
func (d *Document) DecodeBody(data string) error {
	var wrapped body
	if err := json.Unmarshal([]byte(data), &wrapped); err == nil && wrapped.Blocks != nil {
		d.Blocks = wrapped.Blocks
		d.Global = wrapped.GlobalStyle
		d.selected = ""
		return nil
	}
	var blocks []*Block
	if err := json.Unmarshal([]byte(data), &blocks); err != nil {
		return fmt.Errorf("decode page body: %w", err)
	}
	d.Blocks = blocks
	d.Global = GlobalStyle{}
	d.selected = ""
	return nil
}
