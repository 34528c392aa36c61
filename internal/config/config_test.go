package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaultConfigIsValid(t *testing.T) {
	config := NewDefaultConfig()
	require.NoError(t, config.Validate())

	assert.Equal(t, "basic", config.ActiveStepSet)
	assert.NotEmpty(t, config.Providers)
	assert.NotEmpty(t, config.StepSets)
}

func TestLoadConfigWithoutFileUsesDefaults(t *testing.T) {
	config, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	// viper对显式指定但不存在的文件返回错误
	if err != nil {
		config, err = LoadConfig("")
	}
	require.NoError(t, err)

	assert.Equal(t, "Japanese", config.SourceLang)
	assert.Equal(t, "English", config.TargetLang)
	assert.Equal(t, 20, config.BatchSize)
	assert.True(t, config.UseCache)
	assert.NotEmpty(t, config.CacheDir)
}

func TestLoadConfigFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	content := `source_lang: Korean
target_lang: Chinese
batch_size: 10
active_step_set: local
cache_backend: sqlite
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	config, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "Korean", config.SourceLang)
	assert.Equal(t, "Chinese", config.TargetLang)
	assert.Equal(t, 10, config.BatchSize)
	assert.Equal(t, "local", config.ActiveStepSet)
	assert.Equal(t, "sqlite", config.CacheBackend)
	// 未配置的部分回填默认值
	assert.NotEmpty(t, config.Providers)
}

func TestValidateRejectsBadConfig(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"空源语言", func(c *Config) { c.SourceLang = "" }},
		{"空目标语言", func(c *Config) { c.TargetLang = "" }},
		{"不存在的步骤集", func(c *Config) { c.ActiveStepSet = "missing" }},
		{"批次大小为0", func(c *Config) { c.BatchSize = 0 }},
		{"并发数为0", func(c *Config) { c.Concurrency = 0 }},
		{"未配置的提供者", func(c *Config) {
			s := c.StepSets["basic"]
			s.Literal.Provider = "deepl"
			c.StepSets["basic"] = s
		}},
		{"缺少模型", func(c *Config) {
			s := c.StepSets["basic"]
			s.Polish.Model = ""
			c.StepSets["basic"] = s
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := NewDefaultConfig()
			tt.mutate(config)
			assert.Error(t, config.Validate())
		})
	}
}

func TestToStepSet(t *testing.T) {
	stepSet := NewDefaultConfig().StepSets["quality"].ToStepSet()
	require.NoError(t, stepSet.Validate())

	assert.Equal(t, "quality", stepSet.ID)
	assert.Equal(t, "gpt-4o-mini", stepSet.Literal.Model)
	assert.Equal(t, "gpt-4o", stepSet.Correction.Model)
	assert.Equal(t, "gpt-4o", stepSet.Polish.Model)
	assert.Equal(t, 100, stepSet.FastModeThreshold)
}

func TestSaveAndReloadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "saved.yaml")

	config := NewDefaultConfig()
	config.SourceLang = "Korean"
	config.BatchSize = 5
	require.NoError(t, SaveConfig(config, path))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "Korean", loaded.SourceLang)
	assert.Equal(t, 5, loaded.BatchSize)
}

func TestGlossaryRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "glossary.toml")

	glossary := NewGlossary("Japanese", "English", map[string]string{
		"アリス": "Alice",
		"魔王城": "Demon King's Castle",
	})
	require.NoError(t, glossary.Save(path))

	loaded, err := LoadGlossary(path)
	require.NoError(t, err)

	assert.Equal(t, "Japanese", loaded.SourceLang)
	assert.Equal(t, "English", loaded.TargetLang)
	assert.Equal(t, "Alice", loaded.Terms["アリス"])
}

func TestLoadGlossaryErrors(t *testing.T) {
	_, err := LoadGlossary(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.toml")
	require.NoError(t, os.WriteFile(path, []byte(`[terms]
"a" = "b"
`), 0o644))

	// 缺少语言对
	_, err = LoadGlossary(path)
	assert.Error(t, err)
}
