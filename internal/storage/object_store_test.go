package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"farmmarket/internal/config"
)

func TestPublicURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		cfg  config.StorageConfig
		want string
	}{
		{
			name: "public base wins",
			cfg:  config.StorageConfig{Endpoint: "minio:9000", Bucket: "produce", PublicBaseURL: "https://cdn.example.com/"},
			want: "https://cdn.example.com/products/a.jpg",
		},
		{
			name: "bare endpoint",
			cfg:  config.StorageConfig{Endpoint: "minio:9000", Bucket: "produce"},
			want: "http://minio:9000/produce/products/a.jpg",
		},
		{
			name: "bare endpoint with ssl",
			cfg:  config.StorageConfig{Endpoint: "s3.example.com", Bucket: "produce", UseSSL: true},
			want: "https://s3.example.com/produce/products/a.jpg",
		},
		{
			name: "endpoint with scheme",
			cfg:  config.StorageConfig{Endpoint: "https://s3.example.com/", Bucket: "produce"},
			want: "https://s3.example.com/produce/products/a.jpg",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, PublicURL(tt.cfg, "products/a.jpg"))
		})
	}
}
