// Package config provides a config.Hook backed by plain functions and maps
// for command tests.
package config

import (
	"github.com/spf13/pflag"
)

type MockConfigHook struct {
	GetStringMock    func(key string) string
	GetBoolMock      func(key string) bool
	GetIntMock       func(key string) int
	GetIntOrElseMock func(key string, orElse int) int
	SaveMock         func() error
	BindFlagMock     func(string, *pflag.Flag) error
	GetProfileMock   func() string
	SetStringMock    func(k string, v string)
	GetPathMock      func() string
}

// NewStaticConfigHook answers GetString and GetBool from values.
func NewStaticConfigHook(values map[string]string) *MockConfigHook {
	return &MockConfigHook{
		GetStringMock: func(key string) string { return values[key] },
		GetBoolMock:   func(key string) bool { return values[key] == "true" },
		SetStringMock: func(k, v string) { values[k] = v },
	}
}

func (m *MockConfigHook) Save() error {
	if m.SaveMock == nil {
		return nil
	}
	return m.SaveMock()
}

func (m *MockConfigHook) GetString(key string) string {
	if m.GetStringMock == nil {
		return ""
	}
	return m.GetStringMock(key)
}

func (m *MockConfigHook) GetBool(key string) bool {
	if m.GetBoolMock == nil {
		return false
	}
	return m.GetBoolMock(key)
}

func (m *MockConfigHook) GetInt(key string) int {
	if m.GetIntMock == nil {
		return 0
	}
	return m.GetIntMock(key)
}

func (m *MockConfigHook) GetIntOrElse(key string, orElse int) int {
	if m.GetIntOrElseMock != nil {
		return m.GetIntOrElseMock(key, orElse)
	}
	return orElse
}

func (m *MockConfigHook) BindFlag(configPath string, f *pflag.Flag) error {
	if m.BindFlagMock == nil {
		return nil
	}
	return m.BindFlagMock(configPath, f)
}

func (m *MockConfigHook) GetProfile() string {
	if m.GetProfileMock == nil {
		return "default"
	}
	return m.GetProfileMock()
}

func (m *MockConfigHook) SetString(k string, v string) {
	if m.SetStringMock != nil {
		m.SetStringMock(k, v)
	}
}

func (m *MockConfigHook) GetPath() string {
	if m.GetPathMock == nil {
		return ""
	}
	return m.GetPathMock()
}
