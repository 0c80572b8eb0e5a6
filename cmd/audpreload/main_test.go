// SPDX-License-Identifier: EPL-2.0

package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ik5/audcache"
	"github.com/ik5/audcache/formats/wav"
	"github.com/ik5/audcache/internal/audiotest"
)

func TestBuildConfig(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "cfg.yaml")
	if err := os.WriteFile(path, []byte("directory: assets/\nextension: .ogg\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		path    string
		dir     string
		ext     string
		set     map[string]bool
		wantDir string
		wantExt string
		wantErr bool
	}{
		{"defaults", "", "", "", nil, audcache.DefaultDirectory, audcache.DefaultExtension, false},
		{"file", path, "", "", nil, "assets/", ".ogg", false},
		{"flags win", path, "sfx/", ".mp3", map[string]bool{"dir": true, "ext": true}, "sfx/", ".mp3", false},
		{"empty flag is applied", "", "", "", map[string]bool{"dir": true}, "", audcache.DefaultExtension, false},
		{"missing file", filepath.Join(t.TempDir(), "nope.yaml"), "", "", nil, "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg, err := buildConfig(tt.path, tt.dir, tt.ext, tt.set)
			if tt.wantErr {
				if err == nil {
					t.Error("buildConfig() error = nil, want error")
				}
				return
			}
			if err != nil {
				t.Fatalf("buildConfig() error = %v", err)
			}
			if cfg.Directory != tt.wantDir || cfg.Extension != tt.wantExt {
				t.Errorf("buildConfig() = %q %q, want %q %q", cfg.Directory, cfg.Extension, tt.wantDir, tt.wantExt)
			}
		})
	}
}

func TestModel_Update(t *testing.T) {
	t.Parallel()

	eng := audiotest.NewMockEngine()
	c := audcache.New(eng)
	c.Enqueue("a")
	c.Enqueue("b")
	m := newModel(c, 2)

	if msg := m.startQueue(); msg != nil {
		t.Errorf("startQueue() = %v, want nil", msg)
	}
	if !c.QueueActive() {
		t.Fatal("startQueue() did not start the drain")
	}

	m.Update(statusMsg(0.5))
	if m.percent != 0.5 {
		t.Errorf("percent = %v, want 0.5", m.percent)
	}

	m.Update(failedMsg{source: "./sounds/a.wav", err: errors.New("boom")})
	if len(m.failures) != 1 {
		t.Fatalf("failures = %d, want 1", len(m.failures))
	}
	if view := m.View(); !strings.Contains(view, "./sounds/a.wav: boom") || !strings.Contains(view, "q: abort") {
		t.Errorf("View() = %q, want the failure and the help line", view)
	}

	_, cmd := m.Update(doneMsg{})
	if cmd == nil {
		t.Fatal("doneMsg did not quit")
	}
	if !m.done || m.percent != 1 {
		t.Errorf("done = %v percent = %v, want true and 1", m.done, m.percent)
	}
	if view := m.View(); !strings.Contains(view, "0 of 1 loaded") {
		t.Errorf("View() = %q, want the summary", view)
	}

	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	if cmd == nil {
		t.Error("ctrl+c did not quit")
	}
	if c.QueueActive() {
		t.Error("ctrl+c left the queue running")
	}
}

func TestRun(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	data, err := wav.EncodeWAV16(8000, 1, make([]int16, 800))
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "jump.wav"), data, 0o600); err != nil {
		t.Fatal(err)
	}
	soundDir := dir + string(filepath.Separator)

	tests := []struct {
		name       string
		args       []string
		wantCode   int
		wantStdout string
		wantStderr string
	}{
		{"no names", nil, 2, "", "Usage"},
		{"unknown flag", []string{"-nope", "jump"}, 2, "", "nope"},
		{"help", []string{"-h"}, 0, "", "-plain"},
		{"loads", []string{"-plain", "-dir", soundDir, "-ext", ".wav", "jump"}, 0, "loaded 1 of 1", ""},
		{"missing sound", []string{"-plain", "-dir", soundDir, "-ext", ".wav", "jump", "gone"}, 1, "loaded 1 of 2", "failed:"},
		{"bad config", []string{"-config", filepath.Join(dir, "none.yaml"), "jump"}, 1, "", "Error:"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var stdout, stderr bytes.Buffer
			if code := run(tt.args, &stdout, &stderr); code != tt.wantCode {
				t.Errorf("run(%q) = %d, want %d; stderr: %s", tt.args, code, tt.wantCode, stderr.String())
			}
			if !strings.Contains(stdout.String(), tt.wantStdout) {
				t.Errorf("stdout = %q, want it to contain %q", stdout.String(), tt.wantStdout)
			}
			if !strings.Contains(stderr.String(), tt.wantStderr) {
				t.Errorf("stderr = %q, want it to contain %q", stderr.String(), tt.wantStderr)
			}
		})
	}
}
