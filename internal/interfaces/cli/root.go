// 文件: internal/interfaces/cli/root.go
// 功能定位: CLI 根命令，负责全局 Flag 注册、日志初始化、SDK 客户端构建、子命令挂载
// 依赖: cobra、viper、logging、pkg/client
// 强制约束: 文件最后一行必须为 //Personal.AI order the ending

package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/turtacn/ToxInsight/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ToxInsight/pkg/client"
	"github.com/turtacn/ToxInsight/pkg/errors"
	dto "github.com/turtacn/ToxInsight/pkg/types/molecule"
)

// Build-time variables injected via ldflags.
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

const (
	defaultServer  = "http://localhost:8000"
	defaultTimeout = 120 * time.Second
	envPrefix      = "TOXINSIGHT"

	OutputText = "text"
	OutputJSON = "json"
)

// cliContextKey is the context key for CLIContext.
type cliContextKey struct{}

// ToxClient is the subset of the SDK the commands use.
type ToxClient interface {
	Convert(ctx context.Context, smiles string) (*dto.ConvertResponse, error)
	Analyze(ctx context.Context, smiles, prompt string) (*dto.AnalyzeResponse, error)
	Chart(ctx context.Context, smiles string) (*dto.ChartResponse, error)
}

var _ ToxClient = (*client.Client)(nil)

// RootOptions holds global CLI flags.
type RootOptions struct {
	ServerAddr   string
	Timeout      time.Duration
	OutputFormat string
	LogLevel     string
	Verbose      bool
}

// CLIContext carries initialized dependencies through the command tree.
type CLIContext struct {
	Logger       logging.Logger
	Client       ToxClient
	OutputFormat string
	Timeout      time.Duration
}

// NewRootCommand creates the root command with all global flags and
// subcommands.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "toxinsight",
		Short: "ToxInsight CLI: molecular toxicity analysis from SMILES",
		Long: "toxinsight talks to a running ToxInsight API server. It converts SMILES to\n" +
			"3D MOL blocks, runs the Tox21 toxicity model with descriptor analysis, and\n" +
			"asks the language model questions about a molecule.",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", Version, GitCommit, BuildDate),
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return persistentPreRun(cmd, v, opts)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&opts.ServerAddr, "server", defaultServer, "API server address (env TOXINSIGHT_SERVER)")
	pf.DurationVar(&opts.Timeout, "timeout", defaultTimeout, "per-request timeout")
	pf.StringVarP(&opts.OutputFormat, "output", "o", OutputText, "output format (text, json)")
	pf.StringVar(&opts.LogLevel, "log-level", "warn", "log level (debug, info, warn, error)")
	pf.BoolVarP(&opts.Verbose, "verbose", "v", false, "enable debug logging")

	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	_ = v.BindPFlag("server", pf.Lookup("server"))
	_ = v.BindPFlag("timeout", pf.Lookup("timeout"))

	cmd.AddCommand(
		NewConvertCmd(),
		NewAnalyzeCmd(),
		NewChartCmd(),
		NewVersionCmd(),
	)
	return cmd
}

// persistentPreRun resolves flags, builds the logger and the SDK client,
// then stores a CLIContext on the command.
func persistentPreRun(cmd *cobra.Command, v *viper.Viper, opts *RootOptions) error {
	format := strings.ToLower(opts.OutputFormat)
	if format != OutputText && format != OutputJSON {
		return errors.InvalidParam(fmt.Sprintf("unsupported output format %q", opts.OutputFormat))
	}

	logger, err := initLogger(opts)
	if err != nil {
		return fmt.Errorf("logger initialization failed: %w", err)
	}

	timeout := v.GetDuration("timeout")
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	apiClient, err := client.NewClient(v.GetString("server"),
		client.WithTimeout(timeout),
		client.WithLogger(sdkLogger{logger}),
		client.WithUserAgent("toxinsight-cli/"+Version))
	if err != nil {
		return fmt.Errorf("client initialization failed: %w", err)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cmd.SetContext(context.WithValue(ctx, cliContextKey{}, &CLIContext{
		Logger:       logger,
		Client:       apiClient,
		OutputFormat: format,
		Timeout:      timeout,
	}))
	return nil
}

// initLogger creates a console logger writing to stderr.
func initLogger(opts *RootOptions) (logging.Logger, error) {
	level, err := logging.ParseLevel(opts.LogLevel)
	if err != nil {
		return nil, err
	}
	if opts.Verbose {
		level = logging.LevelDebug
	}
	return logging.NewLogger(logging.LogConfig{
		Level:            level,
		Format:           "console",
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
	})
}

// sdkLogger adapts logging.Logger to the printf-style SDK logger.
type sdkLogger struct{ l logging.Logger }

func (s sdkLogger) Debugf(format string, args ...interface{}) {
	s.l.Debug(fmt.Sprintf(format, args...))
}

func (s sdkLogger) Infof(format string, args ...interface{}) {
	s.l.Info(fmt.Sprintf(format, args...))
}

func (s sdkLogger) Errorf(format string, args ...interface{}) {
	s.l.Warn(fmt.Sprintf(format, args...))
}

// GetCLIContext extracts CLIContext from a cobra command's context.
func GetCLIContext(cmd *cobra.Command) (*CLIContext, error) {
	ctx := cmd.Context()
	if ctx == nil {
		return nil, errors.New(errors.ErrCodeValidation, "command context is nil")
	}
	cliCtx, ok := ctx.Value(cliContextKey{}).(*CLIContext)
	if !ok || cliCtx == nil {
		return nil, errors.New(errors.ErrCodeValidation, "CLIContext not found in command context")
	}
	return cliCtx, nil
}

// Execute is the main entry point for the CLI application.
func Execute() error {
	rootCmd := NewRootCommand()
	if err := rootCmd.Execute(); err != nil {
		PrintError(rootCmd, err)
		return err
	}
	return nil
}

// PrintResult writes data as indented JSON, or calls text when the text
// format is selected.
func PrintResult(cmd *cobra.Command, data interface{}, text func() string) error {
	cliCtx, err := GetCLIContext(cmd)
	if err != nil || cliCtx.OutputFormat == OutputJSON || text == nil {
		return printJSON(cmd, data)
	}
	_, err = fmt.Fprint(cmd.OutOrStdout(), text())
	return err
}

func printJSON(cmd *cobra.Command, data interface{}) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

// PrintError writes a formatted error message to stderr.
func PrintError(cmd *cobra.Command, err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Error: %s\n", err.Error())
}

// FormatTable renders headers and rows as an aligned ASCII table.
func FormatTable(headers []string, rows [][]string) string {
	if len(headers) == 0 {
		return ""
	}

	colWidths := make([]int, len(headers))
	for i, h := range headers {
		colWidths[i] = len(h)
	}
	for _, row := range rows {
		for i := 0; i < len(row) && i < len(colWidths); i++ {
			if len(row[i]) > colWidths[i] {
				colWidths[i] = len(row[i])
			}
		}
	}

	var sb strings.Builder
	writeRow := func(cells []string) {
		for i := range headers {
			if i > 0 {
				sb.WriteString("  ")
			}
			val := ""
			if i < len(cells) {
				val = cells[i]
			}
			sb.WriteString(padRight(val, colWidths[i]))
		}
		sb.WriteString("\n")
	}

	writeRow(headers)
	sep := make([]string, len(colWidths))
	for i, w := range colWidths {
		sep[i] = strings.Repeat("-", w)
	}
	writeRow(sep)
	for _, row := range rows {
		writeRow(row)
	}
	return sb.String()
}

// padRight pads s with spaces to the given width.
func padRight(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}

//Personal.AI order the ending
