package blob

import (
	"strings"
	"testing"
)

func Test_SanitizeEndpoint(t *testing.T) {
	t.Parallel()
	cases := []struct {
		in   string
		want string
	}{
		{"https://minio.example.com", "minio.example.com"},
		{"http://localhost:9000", "localhost:9000"},
		{"minio.example.com:9000", "minio.example.com:9000"},
		{"  https://acct.r2.cloudflarestorage.com/extra/path  ", "acct.r2.cloudflarestorage.com"},
	}
	for _, tc := range cases {
		if got := sanitizeEndpoint(tc.in); got != tc.want {
			t.Errorf("sanitizeEndpoint(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func Test_ConfigValidate(t *testing.T) {
	t.Parallel()
	full := func() *Config {
		return &Config{Endpoint: "https://x", AccessKey: "a", SecretKey: "s", Bucket: "b"}
	}
	if err := full().Validate(); err != nil {
		t.Errorf("complete config should validate, got %v", err)
	}

	cases := []struct {
		name  string
		strip func(*Config)
		want  string
	}{
		{"endpoint", func(c *Config) { c.Endpoint = "" }, "BLOB_ENDPOINT"},
		{"access key", func(c *Config) { c.AccessKey = "" }, "BLOB_ACCESS_KEY"},
		{"secret key", func(c *Config) { c.SecretKey = "" }, "BLOB_SECRET_KEY"},
		{"bucket", func(c *Config) { c.Bucket = "" }, "BLOB_BUCKET"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := full()
			tc.strip(cfg)
			err := cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Errorf("error = %v, want mention of %s", err, tc.want)
			}
		})
	}
}
