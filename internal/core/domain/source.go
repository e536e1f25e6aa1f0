package domain

// SourceType identifies the kind of remote a sync source talks to.
type SourceType string

const (
	SourceWebDAV      SourceType = "webdav"
	SourceS3          SourceType = "s3"
	SourceLocalFolder SourceType = "local_folder"
	SourceDropbox     SourceType = "dropbox"
	SourceGoogleDrive SourceType = "google_drive"
	SourceOneDrive    SourceType = "onedrive"
)

// Valid reports whether the source type is one of the known variants.
func (s SourceType) Valid() bool {
	switch s {
	case SourceWebDAV, SourceS3, SourceLocalFolder,
		SourceDropbox, SourceGoogleDrive, SourceOneDrive:
		return true
	}
	return false
}
