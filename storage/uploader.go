package storage

import (
	"context"
	"io"
	"path"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

type UploadResult struct {
	Key      string
	Location string
	ETag     string
}

type FileUploader interface {
	Upload(ctx context.Context, key string, contentType string, reader io.Reader) (*UploadResult, error)
	Delete(ctx context.Context, key string) error
	GetPublicURL(key string) string
}

// ExportKey builds a unique object key such as
// "exports/arena-12/0b8e...-spring-open-standings.csv".
func ExportKey(arenaID int, fileName string) string {
	fileName = strings.TrimLeft(path.Base(fileName), "./")
	return path.Join("exports", "arena-"+strconv.Itoa(arenaID), uuid.NewString()+"-"+fileName)
}
