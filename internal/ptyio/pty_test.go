package ptyio

import (
	"os"
	"testing"
)

func TestLoginShell_ReturnsNonEmpty(t *testing.T) {
	result := loginShell()
	if len(result) == 0 {
		t.Fatal("loginShell should return at least one element")
	}
	if result[0] == "" {
		t.Fatal("shell path should not be empty")
	}
}

func TestLoginShell_HonorsSHELLEnv(t *testing.T) {
	old := os.Getenv("SHELL")
	defer os.Setenv("SHELL", old)

	os.Setenv("SHELL", "/bin/zsh")
	result := loginShell()
	if len(result) != 1 || result[0] != "/bin/zsh" {
		t.Fatalf("loginShell = %v, want [/bin/zsh]", result)
	}
}
