package server

import (
	"io/fs"
	"net/http"
	"path"

	"planora-ticketing/internal/services"
)

// publicFiles exposes only published object keys from local storage.
// Directories are reported as missing so nothing can be listed.
type publicFiles struct {
	root http.FileSystem
}

func (p publicFiles) Open(name string) (http.File, error) {
	if !services.IsPublicKey(path.Clean(name)) {
		return nil, fs.ErrNotExist
	}
	f, err := p.root.Open(name)
	if err != nil {
		return nil, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	if info.IsDir() {
		f.Close()
		return nil, fs.ErrNotExist
	}
	return f, nil
}
