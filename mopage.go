// Package mopage is the core of a block-based mobile page builder. A page
// is an ordered sequence of typed blocks (heading, text, image, slide,
// gallery, video, schedule, list, map, link, divider); the package holds
// the document model, the per-variant HTML renderer, the property schema
// resolver that drives the editor panel, and the command reducer the
// editor dispatches through.
//
// Pages serialize to a compact JSON body and round-trip through a simple
// HTTP key/value store (see internal/store). The HTTP editor and viewer
// live under internal/server; this package stays free of transport
// concerns so it can be tested as plain data.
package mopage
