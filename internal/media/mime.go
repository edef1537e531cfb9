package media

import (
	"fmt"
	"mime"
	"sort"
	"strings"
)

// UploadKind selects the validation profile for an upload.
type UploadKind string

const (
	// UploadKindImage covers product gallery images, category art, and
	// design-request references.
	UploadKindImage UploadKind = "image"
	// UploadKindVideo covers product gallery videos.
	UploadKindVideo UploadKind = "video"
	// UploadKindDigital covers purchasable design files.
	UploadKindDigital UploadKind = "digital"
)

type mimeGroup string

const (
	mimeGroupImages   mimeGroup = "images"
	mimeGroupVideos   mimeGroup = "videos"
	mimeGroupArchives mimeGroup = "archives"
	mimeGroupDesigns  mimeGroup = "design files"
)

var mimeGroupTypes = map[mimeGroup][]string{
	mimeGroupImages:   {"image/png", "image/jpeg", "image/webp", "image/gif", "image/svg+xml"},
	mimeGroupVideos:   {"video/mp4", "video/webm"},
	mimeGroupArchives: {"application/zip", "application/x-7z-compressed"},
	mimeGroupDesigns:  {"application/pdf", "application/postscript", "image/vnd.adobe.photoshop"},
}

var allowedMimeGroupsByKind = map[UploadKind][]mimeGroup{
	UploadKindImage:   {mimeGroupImages},
	UploadKindVideo:   {mimeGroupVideos},
	UploadKindDigital: {mimeGroupArchives, mimeGroupDesigns, mimeGroupImages},
}

var mimeTypesByKind = buildMimeTypesByKind()

func buildMimeTypesByKind() map[UploadKind][]string {
	result := make(map[UploadKind][]string, len(allowedMimeGroupsByKind))
	for kind, groups := range allowedMimeGroupsByKind {
		set := make(map[string]struct{})
		for _, group := range groups {
			for _, value := range mimeGroupTypes[group] {
				set[value] = struct{}{}
			}
		}
		list := make([]string, 0, len(set))
		for value := range set {
			list = append(list, value)
		}
		sort.Strings(list)
		result[kind] = list
	}
	return result
}

// sniffMimeType normalizes a declared content type, stripping parameters.
func sniffMimeType(value string) (string, error) {
	clean := strings.TrimSpace(value)
	if clean == "" {
		return "", fmt.Errorf("content type required")
	}
	mediaType, _, err := mime.ParseMediaType(clean)
	if err != nil {
		return "", fmt.Errorf("content type invalid: %w", err)
	}
	if mediaType == "" {
		return "", fmt.Errorf("content type missing")
	}
	return strings.ToLower(mediaType), nil
}

func mimeAllowed(kind UploadKind, mediaType string) bool {
	for _, candidate := range mimeTypesByKind[kind] {
		if candidate == mediaType {
			return true
		}
	}
	return false
}

func allowedMimeDescription(kind UploadKind) string {
	groups := allowedMimeGroupsByKind[kind]
	names := make([]string, len(groups))
	for i, group := range groups {
		names[i] = string(group)
	}
	switch len(names) {
	case 0:
		return "the approved content types"
	case 1:
		return names[0]
	case 2:
		return fmt.Sprintf("%s or %s", names[0], names[1])
	default:
		return fmt.Sprintf("%s, or %s", strings.Join(names[:len(names)-1], ", "), names[len(names)-1])
	}
}
