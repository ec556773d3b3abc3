// Package setup wires contact-manager into the programs that talk to it.
//
// - Chrome, Chromium, Brave, Edge: native-messaging host manifest with allowed_origins
// - Firefox: native-messaging host manifest with allowed_extensions
// - Claude Code: runs `claude mcp add`
// - Gemini CLI: injects MCP registration in ~/.gemini/settings.json
// - Codex: injects MCP registration in ~/.codex/config.toml
package setup

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
)

var (
	runtimeGOOS  = runtime.GOOS
	userHomeDir  = os.UserHomeDir
	executableFn = os.Executable
	lookPathFn   = exec.LookPath
	runCommand   = func(name string, args ...string) ([]byte, error) {
		return exec.Command(name, args...).CombinedOutput()
	}
	mkdirAllFn          = os.MkdirAll
	readFileFn          = os.ReadFile
	writeFileFn         = os.WriteFile
	jsonMarshalFn       = json.Marshal
	jsonMarshalIndentFn = json.MarshalIndent
	injectGeminiMCPFn   = injectGeminiMCP
	injectCodexMCPFn    = injectCodexMCP
)

// HostName is the native-messaging host name browsers look up.
const HostName = "com.contact_manager.host"

const (
	serverName          = "contact-manager"
	defaultFirefoxID    = "contact-manager@localhost"
	codexBlockHeader    = "[mcp_servers.contact-manager]"
	hostManifestDescrip = "contact-manager native messaging host"
)

// Target is something setup knows how to configure.
type Target struct {
	Name        string
	Description string
	InstallDir  string
}

// Result holds the outcome of an installation.
type Result struct {
	Target      string
	Destination string
	Files       int
}

// Options tune an installation. Zero values fall back to the environment
// (CONTACTS_CHROME_EXTENSION_ID, CONTACTS_FIREFOX_EXTENSION_ID) and the
// running executable.
type Options struct {
	ExtensionID        string
	FirefoxExtensionID string
	BinaryPath         string
}

func (o Options) withDefaults() (Options, error) {
	if o.ExtensionID == "" {
		o.ExtensionID = os.Getenv("CONTACTS_CHROME_EXTENSION_ID")
	}
	if o.FirefoxExtensionID == "" {
		o.FirefoxExtensionID = os.Getenv("CONTACTS_FIREFOX_EXTENSION_ID")
	}
	if o.FirefoxExtensionID == "" {
		o.FirefoxExtensionID = defaultFirefoxID
	}
	if o.BinaryPath == "" {
		exe, err := executableFn()
		if err != nil {
			return o, fmt.Errorf("resolve executable: %w", err)
		}
		o.BinaryPath = exe
	}
	return o, nil
}

// chromiumBrowsers maps target names to their per-OS config roots, relative
// to the user config dir.
var chromiumBrowsers = map[string]struct {
	label  string
	linux  string
	darwin string
	regKey string
}{
	"chrome":   {"Google Chrome", "google-chrome", "Google/Chrome", `HKCU\Software\Google\Chrome\NativeMessagingHosts\`},
	"chromium": {"Chromium", "chromium", "Chromium", `HKCU\Software\Chromium\NativeMessagingHosts\`},
	"brave":    {"Brave", "BraveSoftware/Brave-Browser", "BraveSoftware/Brave-Browser", `HKCU\Software\BraveSoftware\Brave-Browser\NativeMessagingHosts\`},
	"edge":     {"Microsoft Edge", "microsoft-edge", "Microsoft Edge", `HKCU\Software\Microsoft\Edge\NativeMessagingHosts\`},
}

// SupportedTargets returns every target setup can install.
func SupportedTargets() []Target {
	targets := []Target{}
	for _, name := range []string{"chrome", "chromium", "brave", "edge"} {
		b := chromiumBrowsers[name]
		targets = append(targets, Target{
			Name:        name,
			Description: b.label + ": native messaging host for the browser extension",
			InstallDir:  chromiumHostDir(name),
		})
	}
	return append(targets,
		Target{
			Name:        "firefox",
			Description: "Firefox: native messaging host for the browser extension",
			InstallDir:  firefoxHostDir(),
		},
		Target{
			Name:        "claude-code",
			Description: "Claude Code: MCP registration via `claude mcp add`",
			InstallDir:  "managed by claude CLI",
		},
		Target{
			Name:        "gemini-cli",
			Description: "Gemini CLI: MCP registration in settings.json",
			InstallDir:  geminiConfigPath(),
		},
		Target{
			Name:        "codex",
			Description: "Codex: MCP registration in config.toml",
			InstallDir:  codexConfigPath(),
		},
	)
}

// Install configures the named target with default options.
func Install(name string) (*Result, error) {
	return InstallWithOptions(name, Options{})
}

func InstallWithOptions(name string, opts Options) (*Result, error) {
	opts, err := opts.withDefaults()
	if err != nil {
		return nil, err
	}

	if _, ok := chromiumBrowsers[name]; ok {
		return installChromium(name, opts)
	}
	switch name {
	case "firefox":
		return installFirefox(opts)
	case "claude-code":
		return installClaudeCode(opts)
	case "gemini-cli":
		return installGeminiCLI(opts)
	case "codex":
		return installCodex(opts)
	default:
		return nil, fmt.Errorf("unknown target: %q (supported: %s)", name, strings.Join(targetNames(), ", "))
	}
}

func targetNames() []string {
	var names []string
	for _, t := range SupportedTargets() {
		names = append(names, t.Name)
	}
	return names
}

// ─── Browsers ────────────────────────────────────────────────────────────────

type hostManifest struct {
	Name              string   `json:"name"`
	Description       string   `json:"description"`
	Path              string   `json:"path"`
	Type              string   `json:"type"`
	AllowedOrigins    []string `json:"allowed_origins,omitempty"`
	AllowedExtensions []string `json:"allowed_extensions,omitempty"`
}

func installChromium(name string, opts Options) (*Result, error) {
	if opts.ExtensionID == "" {
		return nil, fmt.Errorf("%s needs the extension id: pass --extension-id or set CONTACTS_CHROME_EXTENSION_ID", name)
	}
	manifest := hostManifest{
		Name:           HostName,
		Description:    hostManifestDescrip,
		Path:           opts.BinaryPath,
		Type:           "stdio",
		AllowedOrigins: []string{"chrome-extension://" + opts.ExtensionID + "/"},
	}

	dir := chromiumHostDir(name)
	path, err := writeManifest(dir, manifest)
	if err != nil {
		return nil, err
	}
	if runtimeGOOS == "windows" {
		if err := registerWindowsHost(chromiumBrowsers[name].regKey, path); err != nil {
			return nil, err
		}
	}
	return &Result{Target: name, Destination: path, Files: 1}, nil
}

func installFirefox(opts Options) (*Result, error) {
	manifest := hostManifest{
		Name:              HostName,
		Description:       hostManifestDescrip,
		Path:              opts.BinaryPath,
		Type:              "stdio",
		AllowedExtensions: []string{opts.FirefoxExtensionID},
	}

	path, err := writeManifest(firefoxHostDir(), manifest)
	if err != nil {
		return nil, err
	}
	if runtimeGOOS == "windows" {
		if err := registerWindowsHost(`HKCU\Software\Mozilla\NativeMessagingHosts\`, path); err != nil {
			return nil, err
		}
	}
	return &Result{Target: "firefox", Destination: path, Files: 1}, nil
}

func writeManifest(dir string, m hostManifest) (string, error) {
	if err := mkdirAllFn(dir, 0755); err != nil {
		return "", fmt.Errorf("create manifest dir %s: %w", dir, err)
	}
	data, err := jsonMarshalIndentFn(m, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal manifest: %w", err)
	}
	path := filepath.Join(dir, HostName+".json")
	if err := writeFileFn(path, append(data, '\n'), 0644); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	return path, nil
}

// registerWindowsHost points the browser's registry key at the manifest.
func registerWindowsHost(keyPrefix, manifestPath string) error {
	out, err := runCommand("reg", "add", keyPrefix+HostName, "/ve", "/t", "REG_SZ", "/d", manifestPath, "/f")
	if err != nil {
		return fmt.Errorf("register native host: %s", strings.TrimSpace(string(out)))
	}
	return nil
}

// ─── Claude Code ─────────────────────────────────────────────────────────────

func installClaudeCode(opts Options) (*Result, error) {
	claudeBin, err := lookPathFn("claude")
	if err != nil {
		return nil, fmt.Errorf("claude CLI not found in PATH: install Claude Code first")
	}

	out, err := runCommand(claudeBin, "mcp", "add", "--scope", "user", serverName, "--", opts.BinaryPath, "mcp", "--tools=agent")
	outStr := strings.TrimSpace(string(out))
	if err != nil && !strings.Contains(outStr, "already exists") {
		return nil, fmt.Errorf("claude mcp add failed: %s", outStr)
	}

	return &Result{
		Target:      "claude-code",
		Destination: "claude MCP config (user scope)",
		Files:       0,
	}, nil
}

// ─── Gemini CLI ──────────────────────────────────────────────────────────────

func installGeminiCLI(opts Options) (*Result, error) {
	path := geminiConfigPath()
	if err := injectGeminiMCPFn(path, opts.BinaryPath); err != nil {
		return nil, err
	}
	return &Result{Target: "gemini-cli", Destination: path, Files: 1}, nil
}

func injectGeminiMCP(configPath, binary string) error {
	if err := mkdirAllFn(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	var config map[string]json.RawMessage
	data, err := readFileFn(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			config = make(map[string]json.RawMessage)
		} else {
			return fmt.Errorf("read config: %w", err)
		}
	} else {
		if err := json.Unmarshal(data, &config); err != nil {
			return fmt.Errorf("parse config: %w", err)
		}
	}
	if config == nil {
		config = make(map[string]json.RawMessage)
	}

	var mcpServers map[string]json.RawMessage
	if raw, exists := config["mcpServers"]; exists {
		if err := json.Unmarshal(raw, &mcpServers); err != nil {
			return fmt.Errorf("parse mcpServers block: %w", err)
		}
	}
	if mcpServers == nil {
		mcpServers = make(map[string]json.RawMessage)
	}

	entry := map[string]any{
		"command": binary,
		"args":    []string{"mcp", "--tools=agent"},
	}
	entryJSON, err := jsonMarshalFn(entry)
	if err != nil {
		return fmt.Errorf("marshal %s entry: %w", serverName, err)
	}
	mcpServers[serverName] = json.RawMessage(entryJSON)

	mcpJSON, err := jsonMarshalFn(mcpServers)
	if err != nil {
		return fmt.Errorf("marshal mcpServers block: %w", err)
	}
	config["mcpServers"] = json.RawMessage(mcpJSON)

	output, err := jsonMarshalIndentFn(config, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := writeFileFn(configPath, output, 0644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// ─── Codex ───────────────────────────────────────────────────────────────────

func installCodex(opts Options) (*Result, error) {
	path := codexConfigPath()
	if err := injectCodexMCPFn(path, opts.BinaryPath); err != nil {
		return nil, err
	}
	return &Result{Target: "codex", Destination: path, Files: 1}, nil
}

func injectCodexMCP(configPath, binary string) error {
	if err := mkdirAllFn(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := readFileFn(configPath)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("read config: %w", err)
	}

	updated := upsertCodexBlock(string(data), binary)
	if err := writeFileFn(configPath, []byte(updated), 0644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

func codexBlock(binary string) string {
	return fmt.Sprintf("%s\ncommand = %q\nargs = [\"mcp\", \"--tools=agent\"]", codexBlockHeader, binary)
}

// upsertCodexBlock replaces any existing contact-manager table and appends a
// fresh one, leaving the rest of the file untouched.
func upsertCodexBlock(content, binary string) string {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	lines := strings.Split(content, "\n")

	var kept []string
	for i := 0; i < len(lines); {
		trimmed := strings.TrimSpace(lines[i])
		if trimmed == codexBlockHeader {
			i++
			for i < len(lines) {
				next := strings.TrimSpace(lines[i])
				if strings.HasPrefix(next, "[") && strings.HasSuffix(next, "]") {
					break
				}
				i++
			}
			continue
		}

		kept = append(kept, lines[i])
		i++
	}

	base := strings.TrimSpace(strings.Join(kept, "\n"))
	if base == "" {
		return codexBlock(binary) + "\n"
	}
	return base + "\n\n" + codexBlock(binary) + "\n"
}

// ─── Platform paths ──────────────────────────────────────────────────────────

func chromiumHostDir(name string) string {
	home, _ := userHomeDir()
	b := chromiumBrowsers[name]

	switch runtimeGOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", filepath.FromSlash(b.darwin), "NativeMessagingHosts")
	case "windows":
		return filepath.Join(windowsAppData(home), "contact-manager", "NativeMessagingHosts", name)
	default:
		base := filepath.Join(home, ".config")
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			base = xdg
		}
		return filepath.Join(base, filepath.FromSlash(b.linux), "NativeMessagingHosts")
	}
}

func firefoxHostDir() string {
	home, _ := userHomeDir()

	switch runtimeGOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "Mozilla", "NativeMessagingHosts")
	case "windows":
		return filepath.Join(windowsAppData(home), "contact-manager", "NativeMessagingHosts", "firefox")
	default:
		return filepath.Join(home, ".mozilla", "native-messaging-hosts")
	}
}

func windowsAppData(home string) string {
	if appData := os.Getenv("APPDATA"); appData != "" {
		return appData
	}
	return filepath.Join(home, "AppData", "Roaming")
}

func geminiConfigPath() string {
	home, _ := userHomeDir()

	switch runtimeGOOS {
	case "windows":
		return filepath.Join(windowsAppData(home), "gemini", "settings.json")
	default:
		return filepath.Join(home, ".gemini", "settings.json")
	}
}

func codexConfigPath() string {
	home, _ := userHomeDir()

	switch runtimeGOOS {
	case "windows":
		return filepath.Join(windowsAppData(home), "codex", "config.toml")
	default:
		return filepath.Join(home, ".codex", "config.toml")
	}
}
