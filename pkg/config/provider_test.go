package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/entrhq/quill/pkg/llm/openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildProvider(t *testing.T) {
	tests := []struct {
		name          string
		flags         ProviderFlags
		envAPIKey     string
		envBaseURL    string
		fileContent   string
		expectError   bool
		expectedModel string
		expectedURL   string
	}{
		{
			name:          "CLI flags beat env and file",
			flags:         ProviderFlags{Model: "cli-model", BaseURL: "https://cli.example.com", APIKey: "cli-key"},
			envAPIKey:     "env-key",
			envBaseURL:    "https://env.example.com",
			fileContent:   `{"version":"1.0","sections":{"llm":{"model":"file-model","base_url":"https://file.example.com"}}}`,
			expectedModel: "cli-model",
			expectedURL:   "https://cli.example.com",
		},
		{
			name:          "env beats file",
			envAPIKey:     "env-key",
			envBaseURL:    "https://env.example.com",
			fileContent:   `{"version":"1.0","sections":{"llm":{"model":"file-model","base_url":"https://file.example.com"}}}`,
			expectedModel: "file-model",
			expectedURL:   "https://env.example.com",
		},
		{
			name:          "file only",
			fileContent:   `{"version":"1.0","sections":{"llm":{"model":"file-model","base_url":"https://file.example.com","api_key":"file-key"}}}`,
			expectedModel: "file-model",
			expectedURL:   "https://file.example.com",
		},
		{
			name:          "defaults",
			flags:         ProviderFlags{APIKey: "k"},
			expectedModel: openai.DefaultModel,
			expectedURL:   openai.DefaultBaseURL,
		},
		{
			name:        "no API key anywhere",
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resetGlobal(t)
			t.Setenv("OPENAI_API_KEY", tt.envAPIKey)
			t.Setenv("OPENAI_BASE_URL", tt.envBaseURL)

			if tt.fileContent != "" {
				path := filepath.Join(t.TempDir(), "config.json")
				require.NoError(t, os.WriteFile(path, []byte(tt.fileContent), 0644))
				require.NoError(t, Initialize(path))
			}

			provider, err := BuildProvider(tt.flags)
			if tt.expectError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expectedModel, provider.GetModel())
			assert.Equal(t, tt.expectedURL, provider.GetBaseURL())
		})
	}
}
