// Package memory implements an in-process document host.
//
// A Document realizes the instance tree as a tree of *Node values and can
// serialize any subtree to HTML. It is the host used for server rendering
// and for tests, where the optional operation log records every renderer
// call so two renders can be compared call for call.
//
//	doc := memory.NewDocument(memory.WithOpLog())
//	root := doc.CreateLeaf("div")
//	// ... mount into root ...
//	html, err := doc.Serialize(root)
//
// Serialization is deterministic: class first, then style, then attributes
// in sorted order, then one data-on-<event> marker per bound handler.
package memory
