package setup

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func resetSetupSeams(t *testing.T) {
	t.Helper()
	oldRuntimeGOOS := runtimeGOOS
	oldUserHomeDir := userHomeDir
	oldExecutableFn := executableFn
	oldLookPathFn := lookPathFn
	oldRunCommand := runCommand
	oldMkdirAllFn := mkdirAllFn
	oldReadFileFn := readFileFn
	oldWriteFileFn := writeFileFn
	oldJSONMarshalFn := jsonMarshalFn
	oldJSONMarshalIndentFn := jsonMarshalIndentFn
	oldInjectGeminiMCPFn := injectGeminiMCPFn
	oldInjectCodexMCPFn := injectCodexMCPFn

	t.Cleanup(func() {
		runtimeGOOS = oldRuntimeGOOS
		userHomeDir = oldUserHomeDir
		executableFn = oldExecutableFn
		lookPathFn = oldLookPathFn
		runCommand = oldRunCommand
		mkdirAllFn = oldMkdirAllFn
		readFileFn = oldReadFileFn
		writeFileFn = oldWriteFileFn
		jsonMarshalFn = oldJSONMarshalFn
		jsonMarshalIndentFn = oldJSONMarshalIndentFn
		injectGeminiMCPFn = oldInjectGeminiMCPFn
		injectCodexMCPFn = oldInjectCodexMCPFn
	})

	runtimeGOOS = "linux"
	executableFn = func() (string, error) { return "/usr/local/bin/contact-manager", nil }
	t.Setenv("XDG_CONFIG_HOME", "")
	t.Setenv("CONTACTS_CHROME_EXTENSION_ID", "")
	t.Setenv("CONTACTS_FIREFOX_EXTENSION_ID", "")
}

func useTestHome(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	userHomeDir = func() (string, error) { return home, nil }
	return home
}

func readManifest(t *testing.T, path string) hostManifest {
	t.Helper()
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read manifest: %v", err)
	}
	var m hostManifest
	if err := json.Unmarshal(raw, &m); err != nil {
		t.Fatalf("parse manifest: %v", err)
	}
	return m
}

func TestSupportedTargetsIncludesBrowsersAndAgents(t *testing.T) {
	resetSetupSeams(t)
	useTestHome(t)

	want := map[string]bool{
		"chrome": false, "chromium": false, "brave": false, "edge": false,
		"firefox": false, "claude-code": false, "gemini-cli": false, "codex": false,
	}
	for _, target := range SupportedTargets() {
		if _, ok := want[target.Name]; !ok {
			t.Fatalf("unexpected target %q", target.Name)
		}
		want[target.Name] = true
		if target.InstallDir == "" || target.Description == "" {
			t.Fatalf("target %q missing details: %#v", target.Name, target)
		}
	}
	for name, seen := range want {
		if !seen {
			t.Fatalf("expected %s in supported targets", name)
		}
	}
}

func TestInstallChromeWritesManifest(t *testing.T) {
	resetSetupSeams(t)
	home := useTestHome(t)

	result, err := InstallWithOptions("chrome", Options{ExtensionID: "abcdefghijklmnop"})
	if err != nil {
		t.Fatalf("install chrome: %v", err)
	}

	wantPath := filepath.Join(home, ".config", "google-chrome", "NativeMessagingHosts", HostName+".json")
	if result.Destination != wantPath || result.Target != "chrome" || result.Files != 1 {
		t.Fatalf("unexpected result: %#v", result)
	}

	m := readManifest(t, wantPath)
	if m.Name != HostName || m.Type != "stdio" {
		t.Fatalf("unexpected manifest header: %#v", m)
	}
	if m.Path != "/usr/local/bin/contact-manager" {
		t.Fatalf("expected executable path, got %q", m.Path)
	}
	if len(m.AllowedOrigins) != 1 || m.AllowedOrigins[0] != "chrome-extension://abcdefghijklmnop/" {
		t.Fatalf("unexpected allowed_origins: %#v", m.AllowedOrigins)
	}
	if len(m.AllowedExtensions) != 0 {
		t.Fatalf("chromium manifest must not list allowed_extensions: %#v", m.AllowedExtensions)
	}
}

func TestInstallChromiumFamilyUsesEnvExtensionID(t *testing.T) {
	resetSetupSeams(t)
	home := useTestHome(t)
	t.Setenv("CONTACTS_CHROME_EXTENSION_ID", "envid")

	dirs := map[string]string{
		"chromium": filepath.Join(home, ".config", "chromium", "NativeMessagingHosts"),
		"brave":    filepath.Join(home, ".config", "BraveSoftware", "Brave-Browser", "NativeMessagingHosts"),
		"edge":     filepath.Join(home, ".config", "microsoft-edge", "NativeMessagingHosts"),
	}
	for name, dir := range dirs {
		result, err := Install(name)
		if err != nil {
			t.Fatalf("install %s: %v", name, err)
		}
		if result.Destination != filepath.Join(dir, HostName+".json") {
			t.Fatalf("%s: unexpected destination %q", name, result.Destination)
		}
		m := readManifest(t, result.Destination)
		if m.AllowedOrigins[0] != "chrome-extension://envid/" {
			t.Fatalf("%s: unexpected origin %q", name, m.AllowedOrigins[0])
		}
	}
}

func TestInstallChromeRequiresExtensionID(t *testing.T) {
	resetSetupSeams(t)
	useTestHome(t)

	_, err := Install("chrome")
	if err == nil || !strings.Contains(err.Error(), "extension id") {
		t.Fatalf("expected extension id error, got %v", err)
	}
}

func TestInstallFirefoxDefaultsExtensionID(t *testing.T) {
	resetSetupSeams(t)
	home := useTestHome(t)

	result, err := Install("firefox")
	if err != nil {
		t.Fatalf("install firefox: %v", err)
	}
	wantPath := filepath.Join(home, ".mozilla", "native-messaging-hosts", HostName+".json")
	if result.Destination != wantPath {
		t.Fatalf("unexpected destination %q", result.Destination)
	}

	m := readManifest(t, wantPath)
	if len(m.AllowedExtensions) != 1 || m.AllowedExtensions[0] != "contact-manager@localhost" {
		t.Fatalf("unexpected allowed_extensions: %#v", m.AllowedExtensions)
	}
	if len(m.AllowedOrigins) != 0 {
		t.Fatalf("firefox manifest must not list allowed_origins: %#v", m.AllowedOrigins)
	}

	result, err = InstallWithOptions("firefox", Options{FirefoxExtensionID: "me@example.com"})
	if err != nil {
		t.Fatalf("reinstall firefox: %v", err)
	}
	if m := readManifest(t, result.Destination); m.AllowedExtensions[0] != "me@example.com" {
		t.Fatalf("expected override id, got %#v", m.AllowedExtensions)
	}
}

func TestInstallBrowserOnWindowsRegistersKey(t *testing.T) {
	resetSetupSeams(t)
	home := useTestHome(t)
	runtimeGOOS = "windows"
	t.Setenv("APPDATA", filepath.Join(home, "AppData"))

	var calls [][]string
	runCommand = func(name string, args ...string) ([]byte, error) {
		calls = append(calls, append([]string{name}, args...))
		return []byte("ok"), nil
	}

	result, err := InstallWithOptions("edge", Options{ExtensionID: "xyz"})
	if err != nil {
		t.Fatalf("install edge: %v", err)
	}
	if !strings.HasPrefix(result.Destination, filepath.Join(home, "AppData", "contact-manager")) {
		t.Fatalf("expected manifest under APPDATA, got %q", result.Destination)
	}
	if len(calls) != 1 || calls[0][0] != "reg" {
		t.Fatalf("expected one reg call, got %#v", calls)
	}
	joined := strings.Join(calls[0], " ")
	if !strings.Contains(joined, `HKCU\Software\Microsoft\Edge\NativeMessagingHosts\`+HostName) {
		t.Fatalf("unexpected registry key: %s", joined)
	}
	if !strings.Contains(joined, result.Destination) {
		t.Fatalf("registry value should point at manifest: %s", joined)
	}

	runCommand = func(string, ...string) ([]byte, error) {
		return []byte("access denied"), errors.New("exit 1")
	}
	if _, err := Install("firefox"); err == nil || !strings.Contains(err.Error(), "access denied") {
		t.Fatalf("expected registry failure, got %v", err)
	}
}

func TestInstallGeminiCLIInjectsMCPConfig(t *testing.T) {
	resetSetupSeams(t)
	home := useTestHome(t)

	configPath := filepath.Join(home, ".gemini", "settings.json")
	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		t.Fatalf("mkdir config dir: %v", err)
	}
	original := `{"theme":"dark","mcpServers":{"other":{"command":"foo","args":["bar"]}}}`
	if err := os.WriteFile(configPath, []byte(original), 0644); err != nil {
		t.Fatalf("write initial settings: %v", err)
	}

	result, err := Install("gemini-cli")
	if err != nil {
		t.Fatalf("install gemini-cli: %v", err)
	}
	if result.Target != "gemini-cli" || result.Destination != configPath {
		t.Fatalf("unexpected result: %#v", result)
	}

	raw, err := os.ReadFile(configPath)
	if err != nil {
		t.Fatalf("read settings: %v", err)
	}
	var cfg map[string]any
	if err := json.Unmarshal(raw, &cfg); err != nil {
		t.Fatalf("parse settings: %v", err)
	}
	if cfg["theme"] != "dark" {
		t.Fatalf("expected unrelated keys preserved, got %#v", cfg["theme"])
	}

	mcpServers, ok := cfg["mcpServers"].(map[string]any)
	if !ok {
		t.Fatalf("expected mcpServers object")
	}
	entry, ok := mcpServers["contact-manager"].(map[string]any)
	if !ok {
		t.Fatalf("expected mcpServers.contact-manager object")
	}
	if got := entry["command"]; got != "/usr/local/bin/contact-manager" {
		t.Fatalf("unexpected command %#v", got)
	}
	args, ok := entry["args"].([]any)
	if !ok || len(args) != 2 || args[0] != "mcp" || args[1] != "--tools=agent" {
		t.Fatalf("expected args [mcp --tools=agent], got %#v", entry["args"])
	}
	if _, ok := mcpServers["other"]; !ok {
		t.Fatalf("expected existing mcp server to be preserved")
	}

	if _, err := Install("gemini-cli"); err != nil {
		t.Fatalf("second install should be idempotent: %v", err)
	}
}

func TestInstallGeminiCLICreatesMissingConfig(t *testing.T) {
	resetSetupSeams(t)
	home := useTestHome(t)

	if _, err := Install("gemini-cli"); err != nil {
		t.Fatalf("install gemini-cli: %v", err)
	}
	raw, err := os.ReadFile(filepath.Join(home, ".gemini", "settings.json"))
	if err != nil {
		t.Fatalf("read settings: %v", err)
	}
	if !strings.Contains(string(raw), `"contact-manager"`) {
		t.Fatalf("expected server entry, got %s", raw)
	}
}

func TestInjectGeminiMCPErrors(t *testing.T) {
	t.Run("invalid json", func(t *testing.T) {
		resetSetupSeams(t)
		path := filepath.Join(t.TempDir(), "settings.json")
		if err := os.WriteFile(path, []byte("{broken"), 0644); err != nil {
			t.Fatal(err)
		}
		if err := injectGeminiMCP(path, "cm"); err == nil || !strings.Contains(err.Error(), "parse config") {
			t.Fatalf("expected parse error, got %v", err)
		}
	})

	t.Run("invalid mcpServers block", func(t *testing.T) {
		resetSetupSeams(t)
		path := filepath.Join(t.TempDir(), "settings.json")
		if err := os.WriteFile(path, []byte(`{"mcpServers":[1,2]}`), 0644); err != nil {
			t.Fatal(err)
		}
		if err := injectGeminiMCP(path, "cm"); err == nil || !strings.Contains(err.Error(), "parse mcpServers block") {
			t.Fatalf("expected mcpServers error, got %v", err)
		}
	})

	t.Run("read error", func(t *testing.T) {
		resetSetupSeams(t)
		readFileFn = func(string) ([]byte, error) { return nil, errors.New("disk gone") }
		if err := injectGeminiMCP(filepath.Join(t.TempDir(), "s.json"), "cm"); err == nil || !strings.Contains(err.Error(), "read config") {
			t.Fatalf("expected read error, got %v", err)
		}
	})

	t.Run("write error", func(t *testing.T) {
		resetSetupSeams(t)
		writeFileFn = func(string, []byte, os.FileMode) error { return errors.New("read-only") }
		if err := injectGeminiMCP(filepath.Join(t.TempDir(), "s.json"), "cm"); err == nil || !strings.Contains(err.Error(), "write config") {
			t.Fatalf("expected write error, got %v", err)
		}
	})

	t.Run("marshal error", func(t *testing.T) {
		resetSetupSeams(t)
		jsonMarshalIndentFn = func(any, string, string) ([]byte, error) { return nil, errors.New("boom") }
		if err := injectGeminiMCP(filepath.Join(t.TempDir(), "s.json"), "cm"); err == nil || !strings.Contains(err.Error(), "marshal config") {
			t.Fatalf("expected marshal error, got %v", err)
		}
	})
}

func TestInstallCodexInjectsTOMLAndIsIdempotent(t *testing.T) {
	resetSetupSeams(t)
	home := useTestHome(t)

	configPath := filepath.Join(home, ".codex", "config.toml")
	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		t.Fatal(err)
	}
	original := strings.Join([]string{
		`model = "o3"`,
		"",
		"[mcp_servers.contact-manager]",
		`command = "old"`,
		`args = ["stale"]`,
		"",
		"[mcp_servers.other]",
		`command = "other"`,
	}, "\n")
	if err := os.WriteFile(configPath, []byte(original), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := Install("codex"); err != nil {
		t.Fatalf("install codex: %v", err)
	}
	first, err := os.ReadFile(configPath)
	if err != nil {
		t.Fatal(err)
	}
	text := string(first)

	if strings.Count(text, "[mcp_servers.contact-manager]") != 1 {
		t.Fatalf("expected exactly one block, got:\n%s", text)
	}
	if strings.Contains(text, `"old"`) || strings.Contains(text, "stale") {
		t.Fatalf("expected stale block replaced, got:\n%s", text)
	}
	if !strings.Contains(text, `command = "/usr/local/bin/contact-manager"`) {
		t.Fatalf("expected new command, got:\n%s", text)
	}
	if !strings.Contains(text, `model = "o3"`) || !strings.Contains(text, "[mcp_servers.other]") {
		t.Fatalf("expected unrelated config preserved, got:\n%s", text)
	}

	if _, err := Install("codex"); err != nil {
		t.Fatalf("second install: %v", err)
	}
	second, err := os.ReadFile(configPath)
	if err != nil {
		t.Fatal(err)
	}
	if string(second) != text {
		t.Fatalf("expected idempotent output\nfirst:\n%s\nsecond:\n%s", text, second)
	}
}

func TestUpsertCodexBlockOnEmptyContent(t *testing.T) {
	got := upsertCodexBlock("", "cm")
	want := "[mcp_servers.contact-manager]\ncommand = \"cm\"\nargs = [\"mcp\", \"--tools=agent\"]\n"
	if got != want {
		t.Fatalf("unexpected block:\n%q\nwant:\n%q", got, want)
	}
}

func TestInstallErrorPropagation(t *testing.T) {
	resetSetupSeams(t)
	useTestHome(t)

	injectGeminiMCPFn = func(string, string) error { return errors.New("gemini broke") }
	if _, err := Install("gemini-cli"); err == nil || !strings.Contains(err.Error(), "gemini broke") {
		t.Fatalf("expected gemini error, got %v", err)
	}

	injectCodexMCPFn = func(string, string) error { return errors.New("codex broke") }
	if _, err := Install("codex"); err == nil || !strings.Contains(err.Error(), "codex broke") {
		t.Fatalf("expected codex error, got %v", err)
	}

	executableFn = func() (string, error) { return "", errors.New("no exe") }
	if _, err := Install("firefox"); err == nil || !strings.Contains(err.Error(), "resolve executable") {
		t.Fatalf("expected executable error, got %v", err)
	}
}

func TestWriteManifestErrors(t *testing.T) {
	resetSetupSeams(t)
	useTestHome(t)

	mkdirAllFn = func(string, os.FileMode) error { return errors.New("no perms") }
	if _, err := Install("firefox"); err == nil || !strings.Contains(err.Error(), "create manifest dir") {
		t.Fatalf("expected mkdir error, got %v", err)
	}
	mkdirAllFn = os.MkdirAll

	writeFileFn = func(string, []byte, os.FileMode) error { return errors.New("full") }
	if _, err := Install("firefox"); err == nil || !strings.Contains(err.Error(), "write") {
		t.Fatalf("expected write error, got %v", err)
	}
}

func TestInstallUnknownTarget(t *testing.T) {
	resetSetupSeams(t)
	_, err := Install("netscape")
	if err == nil || !strings.Contains(err.Error(), "unknown target") {
		t.Fatalf("expected unknown target error, got %v", err)
	}
}

func TestDefaultRunCommandExecutes(t *testing.T) {
	resetSetupSeams(t)
	out, err := runCommand("sh", "-c", "printf ok")
	if err != nil {
		t.Fatalf("expected default runCommand to execute, got %v", err)
	}
	if string(out) != "ok" {
		t.Fatalf("unexpected output: %q", string(out))
	}
}

func TestInstallClaudeCodeBranches(t *testing.T) {
	t.Run("cli missing", func(t *testing.T) {
		resetSetupSeams(t)
		lookPathFn = func(string) (string, error) { return "", errors.New("not found") }

		_, err := Install("claude-code")
		if err == nil || !strings.Contains(err.Error(), "claude CLI not found") {
			t.Fatalf("expected not found error, got %v", err)
		}
	})

	t.Run("success", func(t *testing.T) {
		resetSetupSeams(t)
		lookPathFn = func(string) (string, error) { return "claude", nil }
		runCommand = func(name string, args ...string) ([]byte, error) {
			got := strings.Join(args, " ")
			want := "mcp add --scope user contact-manager -- /usr/local/bin/contact-manager mcp --tools=agent"
			if name != "claude" || got != want {
				t.Fatalf("unexpected command: %s %s", name, got)
			}
			return []byte("added"), nil
		}

		result, err := Install("claude-code")
		if err != nil {
			t.Fatalf("expected success, got %v", err)
		}
		if result.Target != "claude-code" || result.Files != 0 {
			t.Fatalf("unexpected result: %#v", result)
		}
	})

	t.Run("already exists is success", func(t *testing.T) {
		resetSetupSeams(t)
		lookPathFn = func(string) (string, error) { return "claude", nil }
		runCommand = func(string, ...string) ([]byte, error) {
			return []byte("MCP server contact-manager already exists"), errors.New("exit 1")
		}
		if _, err := Install("claude-code"); err != nil {
			t.Fatalf("expected already-exists to succeed, got %v", err)
		}
	})

	t.Run("hard failure", func(t *testing.T) {
		resetSetupSeams(t)
		lookPathFn = func(string) (string, error) { return "claude", nil }
		runCommand = func(string, ...string) ([]byte, error) {
			return []byte("network failure"), errors.New("exit 1")
		}
		_, err := Install("claude-code")
		if err == nil || !strings.Contains(err.Error(), "claude mcp add failed") {
			t.Fatalf("expected failure, got %v", err)
		}
	})
}

func TestPathHelpersAcrossOSVariants(t *testing.T) {
	resetSetupSeams(t)
	userHomeDir = func() (string, error) { return "/home/tester", nil }
	t.Setenv("APPDATA", "")

	runtimeGOOS = "darwin"
	if got, want := chromiumHostDir("chrome"), filepath.Join("/home/tester", "Library", "Application Support", "Google", "Chrome", "NativeMessagingHosts"); got != want {
		t.Fatalf("darwin chrome dir = %q, want %q", got, want)
	}
	if got, want := firefoxHostDir(), filepath.Join("/home/tester", "Library", "Application Support", "Mozilla", "NativeMessagingHosts"); got != want {
		t.Fatalf("darwin firefox dir = %q, want %q", got, want)
	}

	runtimeGOOS = "linux"
	t.Setenv("XDG_CONFIG_HOME", "/xdg")
	if got, want := chromiumHostDir("brave"), filepath.Join("/xdg", "BraveSoftware", "Brave-Browser", "NativeMessagingHosts"); got != want {
		t.Fatalf("linux xdg brave dir = %q, want %q", got, want)
	}
	if got, want := geminiConfigPath(), filepath.Join("/home/tester", ".gemini", "settings.json"); got != want {
		t.Fatalf("gemini path = %q, want %q", got, want)
	}
	if got, want := codexConfigPath(), filepath.Join("/home/tester", ".codex", "config.toml"); got != want {
		t.Fatalf("codex path = %q, want %q", got, want)
	}

	runtimeGOOS = "windows"
	roaming := filepath.Join("/home/tester", "AppData", "Roaming")
	if got, want := geminiConfigPath(), filepath.Join(roaming, "gemini", "settings.json"); got != want {
		t.Fatalf("windows gemini path = %q, want %q", got, want)
	}
	if got, want := firefoxHostDir(), filepath.Join(roaming, "contact-manager", "NativeMessagingHosts", "firefox"); got != want {
		t.Fatalf("windows firefox dir = %q, want %q", got, want)
	}
}
