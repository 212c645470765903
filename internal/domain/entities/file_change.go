package entities

// FileAction is the kind of change applied to a single repository file.
type FileAction string

const (
	FileCreate FileAction = "create"
	FileUpdate FileAction = "update"
	FileDelete FileAction = "delete"
	// FileMove renames PreviousPath to Path, optionally with new content.
	FileMove FileAction = "move"
)

// FileChange is one file operation of a commit. Exactly one of Text and Data
// carries the content for create/update/move; delete carries none.
type FileChange struct {
	Action       FileAction
	Slug         string
	Path         string
	PreviousPath string // set for moves
	PreviousSHA  string // blob SHA of the current remote file, when known
	Text         string
	Data         []byte
}

// Content returns the bytes to write for this change.
func (c FileChange) Content() []byte {
	if c.Data != nil {
		return c.Data
	}
	return []byte(c.Text)
}

// IsBinary reports whether the change carries raw bytes instead of text.
func (c FileChange) IsBinary() bool {
	return c.Data != nil
}

// CommittedFile is a file written by a commit together with its new blob SHA.
type CommittedFile struct {
	Path string
	SHA  string
}

// CommitResults is what a successful commit returns.
type CommitResults struct {
	SHA   string
	Files []CommittedFile
}

// FileSHA returns the blob SHA recorded for path, or "".
func (r *CommitResults) FileSHA(path string) string {
	if r == nil {
		return ""
	}
	for _, file := range r.Files {
		if file.Path == path {
			return file.SHA
		}
	}
	return ""
}

// CommitType selects the commit message template.
type CommitType string

const (
	CommitCreate        CommitType = "create"
	CommitUpdate        CommitType = "update"
	CommitDelete        CommitType = "delete"
	CommitUploadMedia   CommitType = "uploadMedia"
	CommitDeleteMedia   CommitType = "deleteMedia"
	CommitOpenAuthoring CommitType = "openAuthoring"
)

// CommitTypes lists every supported commit type.
func CommitTypes() []CommitType {
	return []CommitType{
		CommitCreate, CommitUpdate, CommitDelete,
		CommitUploadMedia, CommitDeleteMedia, CommitOpenAuthoring,
	}
}

// CommitOptions is passed to BackendRepository.CommitChanges.
type CommitOptions struct {
	CommitType CommitType
	Message    string
	User       *User
}

// RepositoryFile is a blob listed by FetchFiles. Text is filled for entry
// files; media files are downloaded lazily with FetchBlob.
type RepositoryFile struct {
	Path string
	SHA  string
	Size int64
	Text string
}
