// Package scanner enumerates the regular files under a root directory.
//
// Enumeration is synchronous: Walk calls its visitor on the calling
// goroutine for each file as it is discovered, so discovery and whatever the
// visitor does (typically dispatching a scan) are interleaved and a blocking
// visitor throttles the walk.
package scanner

// WalkOptions configures a Walker. The zero value reports every regular
// file and every symlink that resolves to a regular file.
type WalkOptions struct {
	// Exclude holds .gitignore-syntax patterns, anchored at the root,
	// whose matches are never reported. Matching directories are not entered.
	Exclude []string

	// RespectGitignore applies .gitignore files found in the tree and
	// skips .git directories.
	RespectGitignore bool

	// SkipSymlinks ignores symbolic links entirely.
	SkipSymlinks bool

	// SkipUnreadableDirs logs and skips directories that cannot be listed
	// instead of failing the walk.
	SkipUnreadableDirs bool
}

// VisitFunc is called for each file found. A non-nil error stops the walk
// and is returned from Walk.
type VisitFunc func(path string) error

// Stats counts what a walk saw.
type Stats struct {
	Files      int
	Dirs       int
	Excluded   int
	Unreadable int
	NonRegular int
}
