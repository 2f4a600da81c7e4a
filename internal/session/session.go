package session

// Exchange is one prompt/response pair within a session.
type Exchange struct {
	Prompt   string
	Response string
}

// IndexEntry records a session's transcript file and the context files it was
// created with.
type IndexEntry struct {
	TranscriptPath string
	ContextFiles   []string // order preserved
}

// ListSeparator joins context file paths inside a single CSV cell. Paths that
// themselves contain it do not survive a round trip.
const ListSeparator = ";"
