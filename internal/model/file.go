package model

import (
	"path"
	"time"
)

// FileTypeAvatar is the only kind of upload. A user has at most one current
// avatar; older rows are removed when a new one is stored.
const FileTypeAvatar = "avatar"

const avatarPrefix = "avatars"

// File is an object in avatar storage plus what the client sent for it.
type File struct {
	ID           string    `db:"id"`
	UserID       string    `db:"user_id"`
	Type         string    `db:"type"`
	Filename     string    `db:"filename"`
	OriginalName string    `db:"original_name"`
	MimeType     string    `db:"mime_type"` // sniffed, not the declared Content-Type
	Size         int64     `db:"size"`
	StoragePath  string    `db:"storage_path"`
	CreatedAt    time.Time `db:"created_at"`
}

// NewAvatar names the object by file id so a re-upload never overwrites the
// previous avatar before its row is replaced.
func NewAvatar(id, userID, originalName, mimeType, ext string, size int64, now time.Time) *File {
	filename := id + ext
	return &File{
		ID:           id,
		UserID:       userID,
		Type:         FileTypeAvatar,
		Filename:     filename,
		OriginalName: path.Base(originalName),
		MimeType:     mimeType,
		Size:         size,
		StoragePath:  path.Join(avatarPrefix, userID, filename),
		CreatedAt:    now,
	}
}

// IsAvatarOf reports whether f is an avatar stored under userID's prefix.
func (f *File) IsAvatarOf(userID string) bool {
	return f.Type == FileTypeAvatar && f.UserID == userID &&
		path.Dir(f.StoragePath) == path.Join(avatarPrefix, userID)
}
