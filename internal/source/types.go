package source

// FileID uniquely identifies a kernel description file within a session.
type FileID uint32

// NoFileID marks a span that does not point into any file.
const NoFileID FileID = ^FileID(0)
