package infra

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPinnedImage(t *testing.T) {
	const digest = "sha256:0123abcd"
	tests := []struct {
		image string
		want  string
	}{
		{"nicholasjackson/fake-service:v0.23.1", "nicholasjackson/fake-service@sha256:0123abcd"},
		{"nicholasjackson/fake-service", "nicholasjackson/fake-service@sha256:0123abcd"},
		{"registry.local:5000/fake-service", "registry.local:5000/fake-service@sha256:0123abcd"},
		{"registry.local:5000/fake-service:v1", "registry.local:5000/fake-service@sha256:0123abcd"},
		{"fake-service:v1@sha256:ffff", "fake-service@sha256:0123abcd"},
	}
	for _, tt := range tests {
		t.Run(tt.image, func(t *testing.T) {
			assert.Equal(t, tt.want, pinnedImage(tt.image, digest))
		})
	}
}
