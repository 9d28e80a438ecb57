package infra

import (
	"fmt"
	"strings"

	"github.com/pulumi/pulumi-docker/sdk/v4/go/docker"
	"github.com/pulumi/pulumi/sdk/v3/go/pulumi"
)

// ServiceImage resolves the container image every task definition runs.
// With PinImageDigest the tag is replaced by the registry's current digest so
// that all three services run the exact same build.
func ServiceImage(ctx *pulumi.Context, vars Vars) (string, error) {
	if !vars.PinImageDigest {
		return vars.Image, nil
	}
	image, err := docker.LookupRegistryImage(ctx, &docker.LookupRegistryImageArgs{
		Name: vars.Image,
	})
	if err != nil {
		return "", fmt.Errorf("Error looking up image %s: %w", vars.Image, err)
	}
	if image.Sha256Digest == "" {
		return "", fmt.Errorf("Error looking up image %s: registry returned no digest", vars.Image)
	}
	return pinnedImage(vars.Image, image.Sha256Digest), nil
}

// pinnedImage rewrites repo[:tag][@digest] to repo@digest.
func pinnedImage(image, digest string) string {
	repo := image
	if i := strings.Index(repo, "@"); i >= 0 {
		repo = repo[:i]
	}
	// a colon before the last slash belongs to a registry port
	if i := strings.LastIndex(repo, ":"); i > strings.LastIndex(repo, "/") {
		repo = repo[:i]
	}
	return repo + "@" + digest
}
