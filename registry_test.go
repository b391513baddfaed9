package mopage

import "testing"

// The registry must be fully populated before any package code runs, since
// defaultContent, Render and Fields all read it. A missing or half-built
// entry here means the dispatch sites have drifted.
func TestVariantTablePopulated(t *testing.T) {
	for _, bt := range BlockTypes() {
		v, ok := variants[bt]
		if !ok {
			t.Errorf("%s: no variant entry", bt)
			continue
		}
		if v.defaultContent == nil || v.render == nil || v.fields == nil || v.accessors == nil {
			t.Errorf("%s: incomplete variant entry", bt)
		}
	}
}

func TestLookupAccessorSharedPaths(t *testing.T) {
	for _, bt := range BlockTypes() {
		if _, ok := lookupAccessor(bt, "style.color"); !ok {
			t.Errorf("%s: style.color not resolvable", bt)
		}
	}
	if _, ok := lookupAccessor(BlockImage, "link"); !ok {
		t.Error("image link not resolvable")
	}
	if _, ok := lookupAccessor(BlockText, "link"); ok {
		t.Error("link must be image-only")
	}
	if _, ok := lookupAccessor("hologram", "content"); ok {
		t.Error("unknown variant must not resolve content")
	}
}
