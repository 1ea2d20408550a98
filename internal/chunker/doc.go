// Package chunker splits extracted page text into overlapping windows
// ready for embedding.
//
// Whitespace on each page is collapsed to single spaces, pages are joined
// with a space, and the running text is cut every Size-Overlap runes into
// windows of Size runes. The trailing remainder becomes the last chunk.
//
//	c, err := chunker.New(1200, 200)
//	if err != nil {
//	    return err
//	}
//	inputs := c.ChunkPages(pages)
//
// Every chunk carries the page numbers of its first and last characters,
// so a window that straddles a page break reports both pages.
package chunker
