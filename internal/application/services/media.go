package services

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/socialdesk/core/internal/domain/entities"
	"github.com/socialdesk/core/internal/ports"
)

// outgoing is what a post looks like on the wire to every channel.
type outgoing struct {
	message string
	upload  *ports.MediaUpload
	video   bool
}

// prepare resolves post media against dir. Remote URLs are appended to
// the message. The first local file becomes the upload; later local files
// are not sent.
func prepare(post entities.Post, dir string) (outgoing, error) {
	out := outgoing{message: post.Content}
	var links []string
	for _, ref := range post.Media {
		if isRemote(ref) {
			links = append(links, ref)
			continue
		}
		if out.upload != nil {
			continue
		}
		content, err := os.ReadFile(filepath.Join(dir, filepath.Clean("/"+ref)))
		if err != nil {
			return outgoing{}, fmt.Errorf("media %s: %w", ref, err)
		}
		out.upload = &ports.MediaUpload{Filename: filepath.Base(ref), Content: content}
		out.video = strings.HasPrefix(mimetype.Detect(content).String(), "video/")
	}
	if len(links) > 0 {
		out.message = strings.TrimSpace(out.message + "\n" + strings.Join(links, "\n"))
	}
	return out, nil
}

func isRemote(ref string) bool {
	u, err := url.Parse(ref)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https")
}
