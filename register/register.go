package register

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ServerInfo holds the identity of the MCP server being registered.
type ServerInfo struct {
	Name   string   // e.g. "valyu" (without -mcp suffix)
	EnvVar []string // variables the host must pass through, e.g. VALYU_API_KEY
}

// NewCommand returns the register subcommand.
func NewCommand(info ServerInfo) *cobra.Command {
	return &cobra.Command{
		Use:   "register <project|user> [directory] [-- server-args...]",
		Short: "Register this server in a Claude MCP config file",
		Long: `Register this binary as an MCP server.

  register project [directory]   writes <directory>/.mcp.json
  register user                  writes ~/.claude.json

Arguments after -- are forwarded to the server on every start.
The entry references the API key as ${VALYU_API_KEY} so the secret is
never written to disk.`,
		Example: `  valyu-mcp register project .
  valyu-mcp register user -- --log-level debug`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return Run(info, args, cmd.ArgsLenAtDash(), func(format string, a ...any) {
				fmt.Fprintf(cmd.OutOrStdout(), format, a...)
			})
		},
	}
}

// Run registers the server. args are the positional arguments; dashIdx is the
// index of the first argument after "--", or -1.
func Run(info ServerInfo, args []string, dashIdx int, printf func(string, ...any)) error {
	scope := args[0]
	if scope != "project" && scope != "user" {
		return fmt.Errorf("unknown scope %q (expected \"project\" or \"user\")", scope)
	}

	directory, serverArgs := splitArgs(args[1:], dashIdx-1)
	if scope == "user" && directory != "." {
		return fmt.Errorf("user scope takes no directory, got %q", directory)
	}

	binaryPath, err := detectBinaryPath()
	if err != nil {
		return fmt.Errorf("detecting binary path: %w", err)
	}

	configPath, err := resolveConfigPath(scope, directory)
	if err != nil {
		return fmt.Errorf("resolving config path: %w", err)
	}

	entry := buildEntry(binaryPath, serverArgs, info.EnvVar)

	if err := writeConfig(configPath, info.Name, entry); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	printf("Registered %q in %s\n", info.Name, configPath)
	return nil
}

// splitArgs separates the optional directory from forwarded server args.
// dashIdx is relative to args and is -1 when no "--" was given.
func splitArgs(args []string, dashIdx int) (string, []string) {
	directory := "."
	var serverArgs []string

	positional := args
	if dashIdx >= 0 && dashIdx <= len(args) {
		positional = args[:dashIdx]
		serverArgs = args[dashIdx:]
	}
	if len(positional) > 0 {
		directory = positional[0]
	}
	return directory, serverArgs
}

func detectBinaryPath() (string, error) {
	execPath, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("os.Executable: %w", err)
	}
	resolved, err := filepath.EvalSymlinks(execPath)
	if err != nil {
		return "", fmt.Errorf("EvalSymlinks: %w", err)
	}
	return resolved, nil
}

// DeriveServerName strips the -mcp suffix and .exe extension from a binary name.
func DeriveServerName(binaryPath string) string {
	name := filepath.Base(strings.ReplaceAll(binaryPath, `\`, "/"))
	name = strings.TrimSuffix(name, ".exe")
	name = strings.TrimSuffix(name, "-mcp")
	return name
}

func resolveConfigPath(scope string, directory string) (string, error) {
	if scope == "user" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("UserHomeDir: %w", err)
		}
		return filepath.Join(homeDir, ".claude.json"), nil
	}
	absDir, err := filepath.Abs(directory)
	if err != nil {
		return "", fmt.Errorf("Abs(%s): %w", directory, err)
	}
	return filepath.Join(absDir, ".mcp.json"), nil
}

type mcpServerEntry struct {
	Command string            `json:"command"`
	Args    []string          `json:"args"`
	Env     map[string]string `json:"env,omitempty"`
}

func buildEntry(binaryPath string, serverArgs []string, envVars []string) mcpServerEntry {
	args := make([]string, len(serverArgs))
	copy(args, serverArgs)

	var env map[string]string
	if len(envVars) > 0 {
		env = make(map[string]string, len(envVars))
		for _, name := range envVars {
			env[name] = "${" + name + "}"
		}
	}

	return mcpServerEntry{
		Command: binaryPath,
		Args:    args,
		Env:     env,
	}
}

func writeConfig(configPath string, serverName string, entry mcpServerEntry) error {
	config := make(map[string]interface{})

	data, err := os.ReadFile(configPath)
	if err == nil {
		if err := json.Unmarshal(data, &config); err != nil {
			return fmt.Errorf("parsing %s: %w", configPath, err)
		}
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("reading %s: %w", configPath, err)
	}

	servers, ok := config["mcpServers"].(map[string]interface{})
	if !ok {
		servers = make(map[string]interface{})
	}
	servers[serverName] = entry
	config["mcpServers"] = servers

	output, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	// Write to a temp file and rename so a crash never leaves a half-written config.
	tmpFile, err := os.CreateTemp(filepath.Dir(configPath), ".mcp-register-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	if _, err := tmpFile.Write(append(output, '\n')); err != nil {
		tmpFile.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpPath, configPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming %s to %s: %w", tmpPath, configPath, err)
	}
	return nil
}
