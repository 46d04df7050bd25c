// Package materials locates and extracts the source content an episode is
// built from.
//
// A materials-set selector maps to one of two configured directory roots. The
// resolver first looks for a structured content pillar (JSON with topics,
// sections, or text chunks, optionally wrapped in an "output" envelope) and,
// failing that, concatenates the text of every recognized file in the tree
// (txt, md, json, pdf) under per-file and global character budgets.
//
// Resolution never fails: unreadable files and malformed JSON are skipped and
// an empty result means no content was found.
package materials
