package validation

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"
)

// AvatarMaxSize bounds an avatar image. The upload endpoint caps the whole
// request body at this plus form overhead.
const AvatarMaxSize = 2 << 20

var (
	ErrAvatarTooLarge    = fmt.Errorf("avatar is too large: maximum size is %d MB", AvatarMaxSize>>20)
	ErrAvatarEmpty       = errors.New("avatar file is empty")
	ErrAvatarUnsupported = errors.New("avatar must be a JPEG, PNG or WebP image")
)

// avatarExtensions maps a sniffed content type to the extension the avatar is
// stored under, whatever the client named the file.
var avatarExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

// AvatarUpload describes an accepted avatar.
type AvatarUpload struct {
	MimeType  string
	Extension string
	Size      int64
}

// ValidateAvatar checks the size and sniffs the content of an uploaded avatar.
// The declared Content-Type is ignored. A filename extension, when present,
// must name an image type too.
func ValidateAvatar(header *multipart.FileHeader) (*AvatarUpload, error) {
	if header.Size > AvatarMaxSize {
		return nil, ErrAvatarTooLarge
	}
	if header.Size == 0 {
		return nil, ErrAvatarEmpty
	}

	file, err := header.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open avatar: %w", err)
	}
	defer func() { _ = file.Close() }()

	// DetectContentType looks at no more than 512 bytes
	buffer := make([]byte, 512)
	n, err := io.ReadFull(file, buffer)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to read avatar: %w", err)
	}

	mimeType := http.DetectContentType(buffer[:n])
	ext, ok := avatarExtensions[mimeType]
	if !ok {
		return nil, ErrAvatarUnsupported
	}

	switch strings.ToLower(filepath.Ext(header.Filename)) {
	case "", ".jpg", ".jpeg", ".png", ".webp":
	default:
		return nil, ErrAvatarUnsupported
	}

	return &AvatarUpload{MimeType: mimeType, Extension: ext, Size: header.Size}, nil
}
