package printing

import (
	"net/http"
	"os"
	"strings"
)

// PublicFS exposes the storage root for static hosting. Only regular,
// non-hidden files are served: in-flight temp files, probe files and
// directory listings all report not found.
func (s *FileSystemStorage) PublicFS() http.FileSystem {
	return publicFS{root: http.Dir(s.config.BasePath)}
}

type publicFS struct {
	root http.FileSystem
}

func (p publicFS) Open(name string) (http.File, error) {
	for _, seg := range strings.Split(name, "/") {
		if strings.HasPrefix(seg, ".") {
			return nil, os.ErrNotExist
		}
	}

	f, err := p.root.Open(name)
	if err != nil {
		return nil, err
	}
	info, err := f.Stat()
	if err != nil || !info.Mode().IsRegular() {
		_ = f.Close()
		return nil, os.ErrNotExist
	}
	return f, nil
}
