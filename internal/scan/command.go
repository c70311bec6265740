package scan

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/google/uuid"
)

// OutputToken in a command line is replaced with the temp file path the
// scanner must write to.
const OutputToken = "{output}"

// DefaultCommand is used on platforms other than Windows.
const DefaultCommand = "scanimage --format=png --output-file=" + OutputToken

// wiaScript drives the Windows Image Acquisition dialog.
const wiaScript = `$out = '%s';
$d = New-Object -ComObject WIA.CommonDialog;
$device = $d.ShowSelectDevice();
if ($device -ne $null) {
  try { $img = $d.ShowAcquireImage($device.DeviceID) } catch { $img = $d.ShowAcquireImage() }
}
if ($img -ne $null) { $img.SaveFile($out); Write-Output $out; exit 0 } else { exit 1 }`

// CommandAcquirer runs an external program that writes one image to a
// uniquely named temp file.
type CommandAcquirer struct {
	// Command is split on whitespace; OutputToken marks the output path.
	// Empty selects the platform default.
	Command string
	Timeout time.Duration
	TempDir string
	Logger  *slog.Logger
}

// NewCommandAcquirer returns an acquirer for command, or the platform
// default when command is blank.
func NewCommandAcquirer(command string, timeout time.Duration, logger *slog.Logger) *CommandAcquirer {
	if logger == nil {
		logger = slog.Default()
	}
	return &CommandAcquirer{
		Command: strings.TrimSpace(command),
		Timeout: timeout,
		Logger:  logger.With("component", "scan"),
	}
}

func (a *CommandAcquirer) outputPath() string {
	dir := a.TempDir
	if dir == "" {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "docman-scan-"+uuid.NewString()+".png")
}

func (a *CommandAcquirer) argv(out string) ([]string, error) {
	if a.Command == "" && runtime.GOOS == "windows" {
		script := fmt.Sprintf(wiaScript, strings.ReplaceAll(out, "'", "''"))
		return []string{"powershell.exe", "-NoProfile", "-ExecutionPolicy", "Bypass", "-Command", script}, nil
	}
	command := a.Command
	if command == "" {
		command = DefaultCommand
	}
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return nil, errors.New("scan command is empty")
	}
	replaced := false
	for i, field := range fields {
		if strings.Contains(field, OutputToken) {
			fields[i] = strings.ReplaceAll(field, OutputToken, out)
			replaced = true
		}
	}
	if !replaced {
		return nil, fmt.Errorf("scan command %q has no %s placeholder", command, OutputToken)
	}
	return fields, nil
}

// Acquire runs the command and returns the bytes it wrote.
func (a *CommandAcquirer) Acquire(ctx context.Context) ([]byte, error) {
	if a.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.Timeout)
		defer cancel()
	}
	logger := a.Logger
	if logger == nil {
		logger = slog.Default()
	}

	out := a.outputPath()
	argv, err := a.argv(out)
	if err != nil {
		return nil, err
	}
	defer os.Remove(out)

	var stderr bytes.Buffer
	command := exec.CommandContext(ctx, argv[0], argv[1:]...)
	command.Stderr = &stderr
	command.WaitDelay = 2 * time.Second
	logger.Debug("starting scan", "program", argv[0], "output", out)
	if err := command.Run(); err != nil {
		return nil, fmt.Errorf("scan with %s: %w (stderr: %s)", argv[0], err, strings.TrimSpace(stderr.String()))
	}

	data, err := os.ReadFile(out)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("scan with %s produced no image", argv[0])
		}
		return nil, fmt.Errorf("read scan output: %w", err)
	}
	logger.Info("scan complete", "bytes", len(data))
	return data, nil
}

var _ Acquirer = (*CommandAcquirer)(nil)
