package config

import (
	"path/filepath"
	"testing"
)

func TestGetHome_EnvVar(t *testing.T) {
	ResetHome()
	t.Cleanup(ResetHome)
	t.Setenv("A11Y_KERNEL_HOME", "/custom/path")

	if got := GetHome(); got != "/custom/path" {
		t.Errorf("GetHome() = %q, want %q", got, "/custom/path")
	}
}

func TestGetHome_FallbackNotEmpty(t *testing.T) {
	ResetHome()
	t.Cleanup(ResetHome)
	t.Setenv("A11Y_KERNEL_HOME", "")

	if GetHome() == "" {
		t.Error("GetHome() returned empty string")
	}
}

func TestGetHome_Cached(t *testing.T) {
	ResetHome()
	t.Cleanup(ResetHome)
	t.Setenv("A11Y_KERNEL_HOME", "/first")
	first := GetHome()

	t.Setenv("A11Y_KERNEL_HOME", "/second")
	if second := GetHome(); first != second {
		t.Errorf("GetHome() not cached: first=%q, second=%q", first, second)
	}
}

func TestDirs(t *testing.T) {
	ResetHome()
	t.Cleanup(ResetHome)
	t.Setenv("A11Y_KERNEL_HOME", "/opt/kernel")

	if got, want := GetLogDir(), filepath.Join("/opt/kernel", "logs"); got != want {
		t.Errorf("GetLogDir() = %q, want %q", got, want)
	}
	if got, want := GetDriversDir("android"), filepath.Join("/opt/kernel", "drivers", "android"); got != want {
		t.Errorf("GetDriversDir() = %q, want %q", got, want)
	}
}
