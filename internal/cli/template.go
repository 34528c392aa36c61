package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/translens/go-llm-translator/pkg/prompt"
)

// NewTemplateCommand 系统提示词模板子命令
func NewTemplateCommand() *cobra.Command {
	templateCmd := &cobra.Command{
		Use:   "template",
		Short: "查看和检查系统提示词模板",
	}

	var renderSource string
	var renderTarget string

	printCmd := &cobra.Command{
		Use:   "print",
		Short: "打印内置的系统提示词模板",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			// 不指定语言时打印带占位符的原始模板
			if renderSource == "" && renderTarget == "" {
				fmt.Fprintln(out, prompt.TranslatorSystemTemplate.Raw())
				return nil
			}

			rendered, err := prompt.TranslatorSystemTemplate.Render(map[string]string{
				prompt.PlaceholderSourceLanguage: renderSource,
				prompt.PlaceholderTargetLanguage: renderTarget,
			})
			if err != nil {
				return err
			}
			fmt.Fprintln(out, rendered)
			return nil
		},
	}
	printCmd.Flags().StringVar(&renderSource, "render-source", "", "用指定的源语言渲染模板")
	printCmd.Flags().StringVar(&renderTarget, "render-target", "", "用指定的目标语言渲染模板")
	templateCmd.AddCommand(printCmd)

	templateCmd.AddCommand(&cobra.Command{
		Use:   "check template_file",
		Short: "检查自定义模板是否满足三步翻译协议",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("读取模板文件失败: %w", err)
			}

			if err := prompt.ValidateTranslatorTemplate(prompt.New(string(data))); err != nil {
				return fmt.Errorf("模板不合法: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), "模板合法")
			return nil
		},
	})

	return templateCmd
}
