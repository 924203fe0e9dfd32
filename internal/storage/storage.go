package storage

import (
	"context"
	"io"
	"mime/multipart"
)

// Media is one uploaded file on its way to object storage.
type Media struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// Uploader stores media and returns its public URL.
type Uploader interface {
	Upload(ctx context.Context, folder string, media *Media) (string, error)
}

// FromFileHeader opens an uploaded multipart file. The caller closes the returned file.
func FromFileHeader(fh *multipart.FileHeader) (*Media, io.Closer, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, nil, err
	}
	return &Media{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Size:        fh.Size,
		Body:        f,
	}, f, nil
}
