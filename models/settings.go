package models

import (
	"encoding/json"
	"os"
)

// Settings is process-wide user configuration. Nothing here is required
// for core operation; missing values fall back to config defaults.
type Settings struct {
	BlenderExecutablePath string            `json:"blender_executable_path"`
	DefaultSaveDirectory  string            `json:"default_save_directory"`
	APIKeys               map[string]string `json:"api_keys"`
	Theme                 string            `json:"theme"`
}

func DefaultSettings() *Settings {
	return &Settings{
		APIKeys: map[string]string{},
		Theme:   "light",
	}
}

// LoadSettings reads settings from path, returning defaults when the file
// does not exist yet.
func LoadSettings(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultSettings(), nil
		}
		return nil, err
	}
	s := DefaultSettings()
	if err := json.Unmarshal(data, s); err != nil {
		return nil, err
	}
	if s.APIKeys == nil {
		s.APIKeys = map[string]string{}
	}
	return s, nil
}

func (s *Settings) Save(path string) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
