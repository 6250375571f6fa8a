package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"
)

var (
	FnDefaultCreateAppHomeDirAndGetConfigFilePath = createAppHomeDirAndGetConfigFile
	FnDefaultSafeWriteViaTemp                     = SafeWriteViaTemp
	homeDirExists                                 = false
	configFilePathResolved                        = make(map[string]bool)
	configFilePathResolvedMu                      sync.Mutex
)

// createAppHomeDirAndGetConfigFile creates a directory in the user's home directory for the app's configuration file.
// It returns the full path to the configuration file.
func createAppHomeDirAndGetConfigFile(fileName string) (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	appDir := filepath.Join(homeDir, AppHomeDir)

	// Ensure the directory exists.
	if !homeDirExists {
		if err := os.MkdirAll(appDir, 0755); err != nil {
			return "", fmt.Errorf("failed to create app directory: %v", err)
		}
	}
	homeDirExists = true

	return filepath.Join(appDir, fileName), nil
}

// SafeWriteViaTemp writes data to a temporary file and renames it into
// place so readers never see a partial file.
func SafeWriteViaTemp(filePath string, data string) error {
	tempPath := filePath + ".tmp"

	file, err := os.Create(tempPath)
	if err != nil {
		return fmt.Errorf("failed to create temp file: %v", err)
	}
	defer file.Close()

	_, err = file.WriteString(data)
	if err != nil {
		return fmt.Errorf("failed to write data: %v", err)
	}

	// Flush data to disk.
	err = file.Sync()
	if err != nil {
		return fmt.Errorf("failed to sync temp file: %v", err)
	}

	err = os.Rename(tempPath, filePath)
	if err != nil {
		return fmt.Errorf("failed to rename file: %v", err)
	}

	return nil
}

// resolveConfigPath joins configPath with the app home directory once per
// path, creating the directory as needed.
func resolveConfigPath(configPath string) (string, error) {
	configFilePathResolvedMu.Lock()
	defer configFilePathResolvedMu.Unlock()
	if !configFilePathResolved[configPath] {
		var err error
		configPath, err = FnDefaultCreateAppHomeDirAndGetConfigFilePath(configPath)
		if err != nil {
			return "", fmt.Errorf("failed to create home directory: %w", err)
		}
		configFilePathResolved[configPath] = true
	}
	return configPath, nil
}

// GetConfig reads a configuration of any type T from a YAML file under the
// app home directory. A missing file is created empty and returns the zero
// value of T.
func GetConfig[T any](mu *sync.Mutex, configPath string, newInstance func() T) (T, error) {
	mu.Lock()
	defer mu.Unlock()

	var zero T

	configPath, err := resolveConfigPath(configPath)
	if err != nil {
		return zero, err
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			if err := FnDefaultSafeWriteViaTemp(configPath, ""); err != nil {
				return zero, fmt.Errorf("failed to create config file: %w", err)
			}
			return zero, nil
		}
		return zero, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := newInstance()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return zero, fmt.Errorf("error unmarshalling config: %w", err)
	}
	return cfg, nil
}

// SetConfig validates, marshals, and writes a configuration of any type T
// to a YAML file under the app home directory, then updates in-memory
// state via the supplied callback.
func SetConfig[T any](
	mu *sync.Mutex,
	configPath string,
	validate func(v T) error,
	updateInMemory func(v T),
	configValue T,
) error {
	mu.Lock()
	defer mu.Unlock()

	configPath, err := resolveConfigPath(configPath)
	if err != nil {
		return err
	}

	if validate != nil {
		if err := validate(configValue); err != nil {
			return err
		}
	}

	data, err := yaml.Marshal(configValue)
	if err != nil {
		return fmt.Errorf("error marshalling config: %w", err)
	}

	if updateInMemory != nil {
		updateInMemory(configValue)
	}

	if err := FnDefaultSafeWriteViaTemp(configPath, string(data)); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
