// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package hook

import (
	"errors"
	"testing"
)

func TestParseBackend(t *testing.T) {
	tests := []struct {
		in   string
		want Backend
		ok   bool
	}{
		{"dx12", BackendDX12, true},
		{"D3D11", BackendDX11, true},
		{" dx9 ", BackendDX9, true},
		{"opengl", BackendOpenGL, true},
		{"gl", BackendOpenGL, true},
		{"", BackendUnknown, false},
		{"vulkan", BackendUnknown, false},
	}
	for _, tc := range tests {
		got, ok := ParseBackend(tc.in)
		if got != tc.want || ok != tc.ok {
			t.Errorf("ParseBackend(%q) = %v, %v; want %v, %v", tc.in, got, ok, tc.want, tc.ok)
		}
	}
}

func TestBackendSupported(t *testing.T) {
	if !BackendDX12.Supported() || !BackendDX11.Supported() {
		t.Error("dx12 and dx11 must be supported")
	}
	if BackendDX9.Supported() || BackendOpenGL.Supported() {
		t.Error("dx9 and opengl are recognized but unsupported")
	}
}

func TestProbeOrder(t *testing.T) {
	want := []string{"d3d12.dll", "d3d11.dll", "d3d9.dll", "opengl32.dll"}
	for i, b := range ProbeOrder {
		if b.ModuleName() != want[i] {
			t.Errorf("probe[%d] = %s, want %s", i, b.ModuleName(), want[i])
		}
	}
}

type nopService struct{}

func (nopService) Install(RenderLoop) error { return nil }
func (nopService) Uninstall() error         { return nil }

func TestRegistry(t *testing.T) {
	Register(BackendDX11, func() Service { return nopService{} })

	svc, err := New(BackendDX11)
	if err != nil || svc == nil {
		t.Fatalf("New(dx11) = %v, %v", svc, err)
	}

	_, err = New(BackendDX9)
	if !errors.Is(err, ErrUnsupported) {
		t.Errorf("New(dx9) err = %v, want ErrUnsupported", err)
	}
}
