package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// resetFlags 清掉包级标志变量，避免测试之间互相污染
func resetFlags() {
	cfgFile = ""
	sourceLang = ""
	targetLang = ""
	stepSet = ""
	providerName = ""
	glossaryPath = ""
	cacheBackend = ""
	cacheDir = ""
	batchSize = 0
	concurrency = 0
	fastMode = false
	noCache = false
	debugMode = false
	verboseMode = false
	dryRun = false
	listStepSets = false
	listProviders = false
	listLanguages = false
	showConfig = false
}

// runCommand 在进程内执行根命令并捕获输出
func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags()

	cmd := NewRootCommand("test", "none", "today")
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetArgs(args)

	err := cmd.Execute()
	return buf.String(), err
}

// writeTestConfig 写一个走回显提供者的最小配置
func writeTestConfig(t *testing.T, dir string) string {
	t.Helper()

	path := filepath.Join(dir, "config.yaml")
	content := `source_lang: Japanese
target_lang: English
active_step_set: echo
use_cache: false
batch_size: 2
concurrency: 1
providers:
  raw:
    api_type: raw
step_sets:
  echo:
    id: echo
    name: echo
    literal: {provider: raw, model: echo}
    correction: {provider: raw, model: echo}
    polish: {provider: raw, model: echo}
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestRootCommandHelp(t *testing.T) {
	out, err := runCommand(t, "--help")
	require.NoError(t, err)

	assert.Contains(t, out, "llm-translator [flags] input_file output_file")
	assert.Contains(t, out, "三步")
	assert.Contains(t, out, "--dry-run")
	assert.Contains(t, out, "--step-set")
}

func TestRootCommandMissingArgs(t *testing.T) {
	_, err := runCommand(t)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 2 arg(s)")
}

func TestListLanguages(t *testing.T) {
	out, err := runCommand(t, "--list-languages")
	require.NoError(t, err)

	assert.Contains(t, out, "japanese")
	assert.Contains(t, out, "english")
}

func TestListStepSetsAndProviders(t *testing.T) {
	configPath := writeTestConfig(t, t.TempDir())

	out, err := runCommand(t, "--config", configPath, "--list-step-sets")
	require.NoError(t, err)
	assert.Contains(t, out, "echo")
	assert.Contains(t, out, "字面翻译")

	out, err = runCommand(t, "--config", configPath, "--list-providers")
	require.NoError(t, err)
	assert.Contains(t, out, "raw")
}

func TestShowConfig(t *testing.T) {
	configPath := writeTestConfig(t, t.TempDir())

	out, err := runCommand(t, "--config", configPath, "--show-config")
	require.NoError(t, err)
	assert.Contains(t, out, "Japanese")
	assert.Contains(t, out, "English")
	assert.Contains(t, out, "echo")
}

func TestDryRunTranslatesFile(t *testing.T) {
	dir := t.TempDir()
	configPath := writeTestConfig(t, dir)
	input := filepath.Join(dir, "input.txt")
	output := filepath.Join(dir, "output.txt")

	require.NoError(t, os.WriteFile(input, []byte("こんにちは\nさようなら\n"), 0o644))

	_, err := runCommand(t, "--config", configPath, "--dry-run", "--debug", input, output)
	require.NoError(t, err)

	written, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Equal(t, "こんにちは\nさようなら\n", string(written))
}

func TestProviderOverrideRejectsUnknown(t *testing.T) {
	dir := t.TempDir()
	configPath := writeTestConfig(t, dir)
	input := filepath.Join(dir, "input.txt")
	require.NoError(t, os.WriteFile(input, []byte("x\n"), 0o644))

	_, err := runCommand(t, "--config", configPath, "--provider", "deepl",
		input, filepath.Join(dir, "out.txt"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "deepl")
}

func TestTemplatePrintAndCheck(t *testing.T) {
	out, err := runCommand(t, "template", "print")
	require.NoError(t, err)
	assert.Contains(t, out, "{source_language}")
	assert.Contains(t, out, "<textarea>")

	out, err = runCommand(t, "template", "print",
		"--render-source", "Japanese", "--render-target", "English")
	require.NoError(t, err)
	assert.Contains(t, out, "Japanese")
	assert.NotContains(t, out, "{source_language}")

	// 内置模板自身应该通过检查
	dir := t.TempDir()
	path := filepath.Join(dir, "template.txt")
	builtin, err := runCommand(t, "template", "print")
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, []byte(builtin), 0o644))

	out, err = runCommand(t, "template", "check", path)
	require.NoError(t, err)
	assert.Contains(t, out, "模板合法")

	_, err = runCommand(t, "template", "check", filepath.Join(dir, "missing.txt"))
	assert.Error(t, err)
}

func TestCacheStatsAndClear(t *testing.T) {
	dir := t.TempDir()
	configPath := writeTestConfig(t, dir)

	out, err := runCommand(t, "--config", configPath, "cache", "stats",
		"--cache-backend", "memory", "--cache-dir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "条目数")

	out, err = runCommand(t, "--config", configPath, "cache", "clear",
		"--cache-backend", "memory", "--cache-dir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "缓存已清空")
}
