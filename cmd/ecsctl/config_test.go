package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigMap(t *testing.T) {
	f := &stackFlags{
		region: "eu-west-1",
		config: []string{
			"vpcCidr=10.1.0.0/16",
			"aws:profile=dev",
			"tags={\"team\":\"platform\"}",
			"image=",
		},
	}

	cfg, err := f.configMap()
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"ecs-microservices:vpcCidr": "10.1.0.0/16",
		"ecs-microservices:tags":    `{"team":"platform"}`,
		"ecs-microservices:image":   "",
		"aws:profile":               "dev",
		"aws:region":                "eu-west-1",
	}, cfg)
}

func TestConfigMapRejectsMalformed(t *testing.T) {
	for _, kv := range []string{"vpcCidr", "=10.0.0.0/16"} {
		f := &stackFlags{config: []string{kv}}
		_, err := f.configMap()
		assert.Error(t, err, kv)
	}
}
