package artifact

import (
	"context"
	"errors"
	"fmt"
	"path"
	"regexp"
	"strings"
)

// Store persists the generated files of a project, keyed by project ID and
// artifact name.
type Store interface {
	Put(ctx context.Context, projectID, name string, content []byte) error
	Get(ctx context.Context, projectID, name string) ([]byte, error)
	List(ctx context.Context, projectID string) ([]string, error)
	// Delete removes every artifact of projectID. Deleting an unknown project
	// is not an error.
	Delete(ctx context.Context, projectID string) error
}

var (
	ErrNotFound   = errors.New("artifact not found")
	ErrInvalidKey = errors.New("invalid artifact key")
)

var reProjectID = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

// ValidProjectID reports whether id is a single filesystem-safe path segment.
func ValidProjectID(id string) bool {
	return reProjectID.MatchString(id) && !strings.Contains(id, "..")
}

func normalizeProject(projectID string) (string, error) {
	projectID = strings.TrimSpace(projectID)
	if !ValidProjectID(projectID) {
		return "", fmt.Errorf("%w: project_id %q", ErrInvalidKey, projectID)
	}
	return projectID, nil
}

// normalizeKey validates both parts of a key. Names are relative slash paths
// that stay inside the project.
func normalizeKey(projectID, name string) (string, string, error) {
	id, err := normalizeProject(projectID)
	if err != nil {
		return "", "", err
	}
	name = strings.TrimLeft(strings.TrimSpace(name), "/")
	if name == "" {
		return "", "", fmt.Errorf("%w: name is required", ErrInvalidKey)
	}
	clean := path.Clean(name)
	if clean == "." || clean == ".." || strings.HasPrefix(clean, "../") || strings.Contains(name, `\`) {
		return "", "", fmt.Errorf("%w: name %q", ErrInvalidKey, name)
	}
	return id, clean, nil
}
