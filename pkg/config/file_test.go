// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/telekom/routecheck/internal/traceroute"
	"github.com/telekom/routecheck/pkg/config/test"
	"gopkg.in/yaml.v3"
)

func TestNewInventoryLoader(t *testing.T) {
	l := NewInventoryLoader("/etc/routecheck/gateways.yaml")
	if l.path != "/etc/routecheck/gateways.yaml" {
		t.Errorf("Expected path to be /etc/routecheck/gateways.yaml, got %s", l.path)
	}
	if l.fsys == nil {
		t.Errorf("Expected filesystem to be not nil")
	}
}

func TestInventoryLoader_Load(t *testing.T) {
	valid := Inventory{Gateways: []InventoryGateway{
		{Name: "core-a", Address: "192.168.1.1"},
		{Name: "core-b", Address: "192.168.2.1"},
	}}

	tests := []struct {
		name    string
		path    string
		mockFS  func(t *testing.T) fs.FS
		want    Inventory
		wantErr bool
	}{
		{
			name: "Loads inventory from file",
			path: "test/data/gateways.yaml",
			want: Inventory{Gateways: []InventoryGateway{
				{Name: "core-a", Address: "192.168.1.1"},
				{Name: "core-b", Address: "192.168.2.1"},
				{Name: "broken", Address: "core-c.example.com"},
				{Address: "192.168.3.1"},
			}},
		},
		{
			name:    "Invalid File Path",
			path:    "test/data/nonexistent.yaml",
			wantErr: true,
		},
		{
			name: "Valid inventory",
			path: "/etc/routecheck/gateways.yaml",
			mockFS: func(t *testing.T) fs.FS {
				b, err := yaml.Marshal(valid)
				if err != nil {
					t.Fatalf("Failed marshaling inventory to bytes: %v", err)
				}
				return test.NewMockFS(map[string][]byte{"gateways.yaml": b})
			},
			want: valid,
		},
		{
			name: "Malformed inventory file",
			path: "test/data/malformed.yaml",
			mockFS: func(_ *testing.T) fs.FS {
				return &test.MockFS{
					OpenFunc: func(name string) (fs.File, error) {
						content := []byte("this is not a valid yaml content")
						return &test.MockFile{Content: content}, nil
					},
				}
			},
			wantErr: true,
		},
		{
			name: "Failed to read file",
			path: "test/data/valid.yaml",
			mockFS: func(_ *testing.T) fs.FS {
				return &test.MockFS{
					OpenFunc: func(name string) (fs.File, error) {
						return &test.MockFile{ReadErr: errors.New("input/output error")}, nil
					},
				}
			},
			wantErr: true,
		},
		{
			name: "Failed to close file",
			path: "test/data/valid.yaml",
			mockFS: func(t *testing.T) fs.FS {
				b, err := yaml.Marshal(valid)
				if err != nil {
					t.Fatalf("Failed marshaling inventory to bytes: %v", err)
				}
				return &test.MockFS{
					OpenFunc: func(name string) (fs.File, error) {
						return &test.MockFile{
							Content: b,
							CloseFunc: func() error {
								return fmt.Errorf("failed to close file")
							},
						}, nil
					},
				}
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := NewInventoryLoader(tt.path)
			if tt.mockFS != nil {
				l.fsys = tt.mockFS(t)
			}

			inv, err := l.Load(t.Context())
			if (err != nil) != tt.wantErr {
				t.Errorf("Load() error %v, want %v", err, tt.wantErr)
			}
			if !tt.wantErr {
				if !reflect.DeepEqual(inv, tt.want) {
					t.Errorf("Expected inventory to be %v, got %v", tt.want, inv)
				}
			}
		})
	}
}

func TestInventoryLoader_Load_opensBaseName(t *testing.T) {
	fsys := test.NewMockFS(map[string][]byte{"gateways.yaml": []byte("gateways: []")})
	l := NewInventoryLoader("/etc/routecheck/gateways.yaml")
	l.fsys = fsys

	_, err := l.Load(t.Context())
	assert.NoError(t, err)
	assert.Equal(t, []string{"gateways.yaml"}, fsys.Opened)
}

func TestInventory_Nodes(t *testing.T) {
	inv := Inventory{Gateways: []InventoryGateway{
		{Name: "core-a", Address: "192.168.1.1"},
		{Name: "broken", Address: "core-c.example.com"},
		{Address: "192.168.3.1"},
		{Name: "v6", Address: "2001:db8::1"},
	}}

	var got []string
	for _, n := range inv.Nodes(t.Context()) {
		got = append(got, n.ID+"="+n.Addr.String())
		assert.False(t, n.Replied)
	}
	assert.Equal(t, []string{"core-a=192.168.1.1", "192.168.3.1=192.168.3.1"}, got)
	assert.Empty(t, Inventory{}.Nodes(t.Context()))
	assert.IsType(t, []traceroute.NetworkNode{}, Inventory{}.Nodes(t.Context()))
}
