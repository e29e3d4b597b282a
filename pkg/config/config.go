package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	"nebula-nodeconf/pkg/model"
)

const (
	TemplateName = "config.yml"
	OutputName   = "node.yml"
	ScriptName   = "export_nebula.sh"
	HistoryName  = "history.db"
	EnvFileName  = ".env"
)

// Settings holds every path and deployment value a run needs. It is built
// once at program entry and passed down by value.
type Settings struct {
	RootDir      string
	TemplatePath string
	OutputPath   string
	ScriptPath   string
	HistoryPath  string // empty keeps history in memory only

	StaticHosts []model.StaticHost

	ConsulAddr   string // empty disables publishing
	ConsulPrefix string
	ConsulToken  string
}

// New lays out the standard file names under rootDir.
func New(rootDir string) Settings {
	return Settings{
		RootDir:      rootDir,
		TemplatePath: filepath.Join(rootDir, TemplateName),
		OutputPath:   filepath.Join(rootDir, OutputName),
		ScriptPath:   filepath.Join(rootDir, ScriptName),
		HistoryPath:  filepath.Join(rootDir, HistoryName),
	}
}

// DefaultRootDir is the directory holding the running executable.
func DefaultRootDir() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("locate executable: %w", err)
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	return filepath.Dir(exe), nil
}

// LoadDotEnv loads rootDir/.env when present. Variables already set in the
// environment win.
func LoadDotEnv(rootDir string) error {
	path := filepath.Join(rootDir, EnvFileName)
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}
