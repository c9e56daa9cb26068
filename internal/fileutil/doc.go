// Package fileutil discovers markdown documents on disk.
//
// Directory arguments on the command line expand to the markdown files
// beneath them, so
//
//	goodread docs/
//
// tests every .md and .markdown file under docs/ in lexical order. Hidden
// directories and the directories in ScanOptions.ExcludeDirs are skipped.
// Arguments that are not directories (files, URLs, missing paths) pass
// through unchanged and fail later, when they are loaded.
package fileutil
