package mopage

import (
	"strings"
	"testing"
)

func newTestDoc(types ...BlockType) *Document {
	d := NewDocument("Test page", "tester", CategoryPersonal, "pass")
	for _, t := range types {
		d.AddBlock(t)
	}
	d.SelectBlock("")
	return d
}

func ids(d *Document) []string {
	out := make([]string, len(d.Blocks))
	for i, b := range d.Blocks {
		out[i] = b.ID
	}
	return out
}

func TestAddBlockAppendsAndSelects(t *testing.T) {
	d := newTestDoc()
	a := d.AddBlock(BlockHeader)
	b := d.AddBlock(BlockText)
	if len(d.Blocks) != 2 {
		t.Fatalf("len = %d", len(d.Blocks))
	}
	if d.Blocks[0] != a || d.Blocks[1] != b {
		t.Error("blocks not appended in order")
	}
	if d.SelectedID() != b.ID {
		t.Errorf("selection = %q, want newest block", d.SelectedID())
	}
}

func TestDeleteBlock(t *testing.T) {
	d := newTestDoc(BlockHeader, BlockText, BlockImage)
	victim := d.Blocks[1].ID
	d.SelectBlock(victim)
	if !d.DeleteBlock(victim) {
		t.Fatal("delete reported no-op")
	}
	if len(d.Blocks) != 2 {
		t.Fatalf("len = %d", len(d.Blocks))
	}
	if d.Block(victim) != nil {
		t.Error("block still present")
	}
	if d.SelectedID() != "" {
		t.Error("deleting the selected block must clear selection")
	}
	if d.DeleteBlock("block_nope") {
		t.Error("unknown id should be a no-op")
	}
}

func TestDeleteUnselectedKeepsSelection(t *testing.T) {
	d := newTestDoc(BlockHeader, BlockText)
	keep := d.Blocks[0].ID
	d.SelectBlock(keep)
	d.DeleteBlock(d.Blocks[1].ID)
	if d.SelectedID() != keep {
		t.Errorf("selection = %q, want %q", d.SelectedID(), keep)
	}
}

func TestMoveBlock(t *testing.T) {
	d := newTestDoc(BlockHeader, BlockText, BlockImage)
	first, second, third := d.Blocks[0].ID, d.Blocks[1].ID, d.Blocks[2].ID

	if d.MoveBlock(first, MoveUp) {
		t.Error("moving first block up should be a no-op")
	}
	if d.MoveBlock(third, MoveDown) {
		t.Error("moving last block down should be a no-op")
	}
	got := ids(d)
	if got[0] != first || got[1] != second || got[2] != third {
		t.Fatalf("boundary no-op reordered: %v", got)
	}

	if !d.MoveBlock(second, MoveUp) {
		t.Fatal("valid move rejected")
	}
	got = ids(d)
	if got[0] != second || got[1] != first {
		t.Fatalf("after move up: %v", got)
	}
	if !d.MoveBlock(second, MoveDown) {
		t.Fatal("move back rejected")
	}
	if got := ids(d); got[0] != first || got[1] != second {
		t.Fatalf("move up then down is not identity: %v", got)
	}
}

func TestSelectBlock(t *testing.T) {
	d := newTestDoc(BlockHeader)
	id := d.Blocks[0].ID
	d.SelectBlock(id)
	if d.Selected() == nil || d.Selected().ID != id {
		t.Fatal("selection not set")
	}
	d.SelectBlock("block_ghost")
	if d.Selected() != nil {
		t.Error("selecting unknown id must clear selection")
	}
}

func TestUpdateFieldRoundTrip(t *testing.T) {
	d := newTestDoc(BlockSchedule)
	id := d.Blocks[0].ID

	tests := []struct {
		path  string
		value any
	}{
		{"content.title", "Launch party"},
		{"content.start", "2026-09-01T18:00"},
		{"style.color", "#ff0000"},
		{"style.textAlign", "center"},
	}
	for _, tt := range tests {
		if !d.UpdateField(id, tt.path, tt.value) {
			t.Fatalf("update %s rejected", tt.path)
		}
		got, ok := d.FieldValue(id, tt.path)
		if !ok || got != tt.value {
			t.Errorf("%s = %v, want %v", tt.path, got, tt.value)
		}
	}

	if d.UpdateField(id, "content.nope", "x") {
		t.Error("unknown path should be a no-op")
	}
	if d.UpdateField("block_ghost", "content.title", "x") {
		t.Error("unknown id should be a no-op")
	}
	if d.UpdateField(id, "content.title", 42) {
		t.Error("mistyped value should be rejected")
	}
}

func TestUpdateFieldSlideDurationClamped(t *testing.T) {
	d := newTestDoc(BlockSlide)
	id := d.Blocks[0].ID
	if !d.UpdateField(id, "content.durationSeconds", 99.0) {
		t.Fatal("update rejected")
	}
	got, _ := d.FieldValue(id, "content.durationSeconds")
	if got != SlideMaxDuration {
		t.Errorf("duration = %v, want clamped to %v", got, SlideMaxDuration)
	}
	// Form posts deliver numbers as strings.
	if !d.UpdateField(id, "content.durationSeconds", "2.5") {
		t.Fatal("string number rejected")
	}
	got, _ = d.FieldValue(id, "content.durationSeconds")
	if got != 2.5 {
		t.Errorf("duration = %v", got)
	}
}

func TestUpdateArrayField(t *testing.T) {
	d := newTestDoc(BlockSlide, BlockGallery, BlockList)
	slide, gallery, list := d.Blocks[0].ID, d.Blocks[1].ID, d.Blocks[2].ID

	if !d.UpdateArrayField(slide, "content.images", PushOp("a.png")) {
		t.Fatal("slide push rejected")
	}
	if !d.UpdateArrayField(slide, "content.images", PushOp("b.png")) {
		t.Fatal("slide push rejected")
	}
	sc := d.Block(slide).Content.(SlideContent)
	if len(sc.Images) != 2 || sc.Images[1] != "b.png" {
		t.Fatalf("slide images = %v", sc.Images)
	}
	if !d.UpdateArrayField(slide, "content.images", RemoveAtOp(0)) {
		t.Fatal("slide remove rejected")
	}
	sc = d.Block(slide).Content.(SlideContent)
	if len(sc.Images) != 1 || sc.Images[0] != "b.png" {
		t.Fatalf("slide images after remove = %v", sc.Images)
	}
	if d.UpdateArrayField(slide, "content.images", RemoveAtOp(5)) {
		t.Error("out-of-range remove should be a no-op")
	}

	if !d.UpdateArrayField(gallery, "content", PushOp("g.png")) {
		t.Fatal("gallery push rejected")
	}
	if len(d.Block(gallery).Content.(GalleryContent)) != 1 {
		t.Error("gallery push lost")
	}

	if !d.UpdateArrayField(list, "content", PushOp(ListItem{Label: "Where", Value: "Seoul"})) {
		t.Fatal("list push rejected")
	}
	lc := d.Block(list).Content.(ListContent)
	if lc[len(lc)-1].Label != "Where" {
		t.Errorf("list items = %v", lc)
	}
}

func TestUpdateArrayFieldRecoversShape(t *testing.T) {
	d := newTestDoc(BlockGallery)
	id := d.Blocks[0].ID
	d.Block(id).Content = TextContent("corrupt")
	if !d.UpdateArrayField(id, "content", PushOp("x.png")) {
		t.Fatal("push after corruption rejected")
	}
	gc := d.Block(id).Content.(GalleryContent)
	if len(gc) != 1 || gc[0] != "x.png" {
		t.Fatalf("gallery = %v", gc)
	}
}

func TestBodyRoundTrip(t *testing.T) {
	d := newTestDoc(BlockHeader, BlockSlide)
	d.Global.BackgroundColor = "#fafafa"
	d.UpdateField(d.Blocks[0].ID, "content", "Hi")
	d.UpdateArrayField(d.Blocks[1].ID, "content.images", PushOp("a.png"))

	data, err := d.EncodeBody()
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(data, `"globalStyle"`) {
		t.Error("body missing globalStyle")
	}

	got := NewDocument("x", "y", CategoryTeam, "")
	if err := got.DecodeBody(data); err != nil {
		t.Fatal(err)
	}
	if len(got.Blocks) != 2 {
		t.Fatalf("len = %d", len(got.Blocks))
	}
	if got.Global.BackgroundColor != "#fafafa" {
		t.Errorf("globalStyle lost: %+v", got.Global)
	}
	if got.Blocks[0].Content.(TextContent) != "Hi" {
		t.Errorf("content lost: %v", got.Blocks[0].Content)
	}
}

func TestDecodeBodyLegacyArray(t *testing.T) {
	d := NewDocument("x", "y", CategoryTeam, "")
	legacy := `[{"id":"block_1","type":"text","content":"old"}]`
	if err := d.DecodeBody(legacy); err != nil {
		t.Fatal(err)
	}
	if len(d.Blocks) != 1 || d.Blocks[0].Content.(TextContent) != "old" {
		t.Fatalf("blocks = %+v", d.Blocks)
	}
}

func TestDecodeBodyGarbage(t *testing.T) {
	d := NewDocument("x", "y", CategoryTeam, "")
	if err := d.DecodeBody("{not json"); err == nil {
		t.Fatal("expected error")
	}
}
