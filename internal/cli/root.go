package cli

import (
	"fmt"
	"os"
	"sort"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/translens/go-llm-translator/internal/config"
	"github.com/translens/go-llm-translator/internal/langs"
	"github.com/translens/go-llm-translator/internal/logger"
	"github.com/translens/go-llm-translator/internal/translator"
)

var (
	// 命令行标志变量
	cfgFile       string
	sourceLang    string
	targetLang    string
	stepSet       string
	providerName  string
	glossaryPath  string
	cacheBackend  string
	cacheDir      string
	batchSize     int
	concurrency   int
	fastMode      bool
	noCache       bool
	debugMode     bool
	verboseMode   bool
	dryRun        bool // 预演模式，使用回显提供者，不发起任何请求
	listStepSets  bool
	listProviders bool
	listLanguages bool
	showConfig    bool
)

// NewRootCommand 创建根命令
func NewRootCommand(version, commit, buildDate string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "llm-translator [flags] input_file output_file",
		Short: "基于大语言模型的三步翻译工具",
		Long: `llm-translator 是一个基于大语言模型的批量翻译工具，采用
字面翻译、校对、润色的三步流程来保证翻译质量。

文本按编号行打包发送，模型输出包在textarea元素里返回，
转义字符和占位符在翻译前后自动保护和还原。

支持的翻译提供商:
  - openai: OpenAI 及所有兼容接口
  - ollama: Ollama 本地大语言模型
  - raw:    回显提供者，用于预演`,
		Version: fmt.Sprintf("%s (commit %s, built %s)", version, commit, buildDate),
		Args: func(cmd *cobra.Command, args []string) error {
			if listStepSets || listProviders || listLanguages || showConfig {
				return nil
			}
			if len(args) != 2 {
				return fmt.Errorf("accepts 2 arg(s), received %d", len(args))
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			// API密钥通常放在.env里
			_ = godotenv.Load()

			if listLanguages {
				printLanguages(cmd)
				return nil
			}

			cfg, err := loadConfigWithFlags(cmd)
			if err != nil {
				return err
			}

			if listStepSets {
				printStepSets(cmd, cfg)
				return nil
			}
			if listProviders {
				printProviders(cmd, cfg)
				return nil
			}
			if showConfig {
				printConfig(cmd, cfg)
				return nil
			}

			log := logger.NewLoggerWithVerbose(cfg.Debug, cfg.Verbose)
			defer func() {
				_ = log.Sync()
			}()

			coordinator, err := translator.NewCoordinator(cfg, log)
			if err != nil {
				log.Error("创建翻译协调器失败", zap.Error(err))
				return err
			}

			result, err := coordinator.TranslateFile(cmd.Context(), args[0], args[1])
			if err != nil {
				log.Error("翻译文件失败", zap.Error(err))
				return err
			}

			log.Info("翻译完成",
				zap.String("输入文件", result.InputFile),
				zap.String("输出文件", result.OutputFile),
				zap.Int("总条目", result.Total),
				zap.Int("已翻译", result.Translated),
				zap.Int("失败", result.Failed),
				zap.Duration("耗时", result.Duration))

			coordinator.RenderStats(cmd.OutOrStdout())
			return nil
		},
	}

	addGlobalFlags(rootCmd)

	rootCmd.AddCommand(NewCacheCommand())
	rootCmd.AddCommand(NewTemplateCommand())

	return rootCmd
}

// addGlobalFlags 注册全局标志
func addGlobalFlags(cmd *cobra.Command) {
	flags := cmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "配置文件路径 (默认 ~/.llm-translator.yaml)")
	flags.StringVarP(&sourceLang, "source", "s", "", "源语言")
	flags.StringVarP(&targetLang, "target", "t", "", "目标语言")
	flags.StringVar(&stepSet, "step-set", "", "使用的步骤集")
	flags.StringVar(&providerName, "provider", "", "所有步骤都使用指定的提供者")
	flags.StringVar(&glossaryPath, "glossary", "", "术语表文件路径 (TOML)")
	flags.StringVar(&cacheBackend, "cache-backend", "", "缓存后端 (memory, file, sqlite)")
	flags.StringVar(&cacheDir, "cache-dir", "", "缓存目录")
	flags.IntVar(&batchSize, "batch-size", 0, "每个请求打包的条目数")
	flags.IntVar(&concurrency, "concurrency", 0, "并行请求数")
	flags.BoolVar(&fastMode, "fast", false, "快速模式，只做字面翻译")
	flags.BoolVar(&noCache, "no-cache", false, "禁用缓存")
	flags.BoolVar(&debugMode, "debug", false, "调试模式")
	flags.BoolVarP(&verboseMode, "verbose", "v", false, "显示翻译片段")
	flags.BoolVar(&dryRun, "dry-run", false, "预演模式，不发起任何请求")
	flags.BoolVar(&listStepSets, "list-step-sets", false, "列出可用的步骤集")
	flags.BoolVar(&listProviders, "list-providers", false, "列出配置的提供者")
	flags.BoolVar(&listLanguages, "list-languages", false, "列出内置支持的语言名")
	flags.BoolVar(&showConfig, "show-config", false, "显示当前配置")
}

// loadConfigWithFlags 加载配置并用命令行标志覆盖
func loadConfigWithFlags(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.LoadConfig(cfgFile)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("source") {
		cfg.SourceLang = sourceLang
	}
	if flags.Changed("target") {
		cfg.TargetLang = targetLang
	}
	if flags.Changed("step-set") {
		cfg.ActiveStepSet = stepSet
	}
	if flags.Changed("glossary") {
		cfg.GlossaryPath = glossaryPath
	}
	if flags.Changed("cache-backend") {
		cfg.CacheBackend = cacheBackend
	}
	if flags.Changed("cache-dir") {
		cfg.CacheDir = cacheDir
	}
	if flags.Changed("batch-size") {
		cfg.BatchSize = batchSize
	}
	if flags.Changed("concurrency") {
		cfg.Concurrency = concurrency
	}
	if fastMode {
		cfg.FastMode = true
	}
	if noCache {
		cfg.UseCache = false
	}
	if debugMode {
		cfg.Debug = true
	}
	if verboseMode {
		cfg.Verbose = true
	}

	if dryRun {
		applyDryRun(cfg)
	} else if providerName != "" {
		if err := applyProviderOverride(cfg, providerName); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyDryRun 把当前步骤集的所有步骤换成回显提供者
func applyDryRun(cfg *config.Config) {
	if _, ok := cfg.Providers["raw"]; !ok {
		cfg.Providers["raw"] = config.ProviderConfig{APIType: "raw"}
	}

	stepSet := cfg.ActiveStepSetConfig()
	stepSet.Literal.Provider = "raw"
	stepSet.Correction.Provider = "raw"
	stepSet.Polish.Provider = "raw"
	cfg.StepSets[cfg.ActiveStepSet] = stepSet
	cfg.UseCache = false
}

// applyProviderOverride 所有步骤改用指定提供者，模型保持不变
func applyProviderOverride(cfg *config.Config, name string) error {
	if _, ok := cfg.Providers[name]; !ok {
		return fmt.Errorf("提供者 %q 未配置", name)
	}

	stepSet := cfg.ActiveStepSetConfig()
	stepSet.Literal.Provider = name
	stepSet.Correction.Provider = name
	stepSet.Polish.Provider = name
	cfg.StepSets[cfg.ActiveStepSet] = stepSet
	return nil
}

// printStepSets 列出可用的步骤集
func printStepSets(cmd *cobra.Command, cfg *config.Config) {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "可用的步骤集:")

	ids := make([]string, 0, len(cfg.StepSets))
	for id := range cfg.StepSets {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		s := cfg.StepSets[id]
		marker := " "
		if id == cfg.ActiveStepSet {
			marker = "*"
		}
		fmt.Fprintf(out, "%s %s: %s (%s)\n", marker, id, s.Name, s.Description)
		fmt.Fprintf(out, "    字面翻译: %s/%s\n", s.Literal.Provider, s.Literal.Model)
		fmt.Fprintf(out, "    校对:     %s/%s\n", s.Correction.Provider, s.Correction.Model)
		fmt.Fprintf(out, "    润色:     %s/%s\n", s.Polish.Provider, s.Polish.Model)
	}
}

// printProviders 列出配置的提供者
func printProviders(cmd *cobra.Command, cfg *config.Config) {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "配置的提供者:")

	names := make([]string, 0, len(cfg.Providers))
	for name := range cfg.Providers {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		p := cfg.Providers[name]
		fmt.Fprintf(out, "  - %s (%s)", name, p.APIType)
		if p.BaseURL != "" {
			fmt.Fprintf(out, " %s", p.BaseURL)
		}
		fmt.Fprintln(out)
	}
}

// printLanguages 列出内置支持的语言名
func printLanguages(cmd *cobra.Command) {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "内置支持的语言名 (也接受任意BCP47标签):")

	names := langs.Supported()
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(out, "  - %s\n", name)
	}
}

// printConfig 显示当前配置
func printConfig(cmd *cobra.Command, cfg *config.Config) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "源语言:     %s\n", cfg.SourceLang)
	fmt.Fprintf(out, "目标语言:   %s\n", cfg.TargetLang)
	fmt.Fprintf(out, "步骤集:     %s\n", cfg.ActiveStepSet)
	fmt.Fprintf(out, "批次大小:   %d\n", cfg.BatchSize)
	fmt.Fprintf(out, "并发数:     %d\n", cfg.Concurrency)
	fmt.Fprintf(out, "缓存:       %v (%s, %s)\n", cfg.UseCache, cfg.CacheBackend, cfg.CacheDir)
	fmt.Fprintf(out, "内容保护:   %v\n", cfg.ContentProtection)
	if cfg.GlossaryPath != "" {
		fmt.Fprintf(out, "术语表:     %s\n", cfg.GlossaryPath)
	}
}

// Execute 运行根命令
func Execute(version, commit, buildDate string) {
	rootCmd := NewRootCommand(version, commit, buildDate)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
