package storage

import (
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/stacklok/opendata-catalog-server/internal/catalog"
)

// ErrInvalidPath is returned when a path component could escape its directory
var ErrInvalidPath = errors.New("invalid storage path")

const (
	catalogDir      = "catalog"
	distributionDir = "distributions"
	catalogBaseName = "data"

	archiveDateLayout  = "2006-01-02"
	versionStampLayout = "20060102T150405.000000000Z"
)

// checkComponent rejects anything that is not a single, plain path element
func checkComponent(kind, value string) error {
	switch {
	case value == "", value == ".", value == "..":
		return fmt.Errorf("%w: %s %q", ErrInvalidPath, kind, value)
	case strings.ContainsAny(value, "/\\\x00"):
		return fmt.Errorf("%w: %s %q contains a separator", ErrInvalidPath, kind, value)
	}
	return nil
}

// CatalogPath is the canonical location of a node's catalog: catalog/{node}/data.{format}
func CatalogPath(node string, format catalog.Format) (string, error) {
	if err := checkComponent("node", node); err != nil {
		return "", err
	}
	return path.Join(catalogDir, node, catalogBaseName+"."+format.String()), nil
}

// ArchivePath is the dated copy of a node's catalog: catalog/{node}/{YYYY-MM-DD}/data.{format}
func ArchivePath(node string, day time.Time, format catalog.Format) (string, error) {
	if err := checkComponent("node", node); err != nil {
		return "", err
	}
	return path.Join(catalogDir, node, day.Format(archiveDateLayout), catalogBaseName+"."+format.String()), nil
}

// VersionPath is the location of one distribution upload:
// distributions/{node}/{distribution}/{marker}/{file}
func VersionPath(node, distribution, marker, fileName string) (string, error) {
	for _, c := range []struct{ kind, value string }{
		{"node", node},
		{"distribution", distribution},
		{"version marker", marker},
		{"file name", fileName},
	} {
		if err := checkComponent(c.kind, c.value); err != nil {
			return "", err
		}
	}
	return path.Join(distributionDir, node, distribution, marker, fileName), nil
}

// VersionMarker builds a directory name unique to one upload
func VersionMarker(uploadedAt time.Time) string {
	return uploadedAt.UTC().Format(versionStampLayout) + "-" + uuid.NewString()[:8]
}
