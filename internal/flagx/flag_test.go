package flagx

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilterArgs(t *testing.T) {
	tests := []struct {
		name      string
		args      []string
		names     []string
		boolNames []string
		want      []string
	}{
		{
			name:  "separate value",
			args:  []string{"-c", "conf.json", "-a", ":5000"},
			names: []string{"c", "config"},
			want:  []string{"-c", "conf.json"},
		},
		{
			name:  "attached value with double dash",
			args:  []string{"--config=alt.yaml", "-a", ":5000"},
			names: []string{"c", "config"},
			want:  []string{"--config=alt.yaml"},
		},
		{
			name:  "order preserved across spellings",
			args:  []string{"--config=first.json", "-c", "second.json", "-x", "1"},
			names: []string{"c", "config"},
			want:  []string{"--config=first.json", "-c", "second.json"},
		},
		{
			name:  "unknown flags and positionals dropped",
			args:  []string{"-x", "1", "--y=2", "positional", "-", "--"},
			names: []string{"c"},
			want:  []string{},
		},
		{
			name:  "trailing flag without value",
			args:  []string{"-c"},
			names: []string{"c"},
			want:  []string{"-c"},
		},
		{
			name:  "next flag is not a value",
			args:  []string{"-c", "-other"},
			names: []string{"c"},
			want:  []string{"-c"},
		},
		{
			name:  "attached value may start with dashes",
			args:  []string{"-config=--weird.json"},
			names: []string{"config"},
			want:  []string{"-config=--weird.json"},
		},
		{
			name:      "bool flag does not swallow the next argument",
			args:      []string{"-dev", "stray", "-a", ":5000"},
			names:     []string{"a"},
			boolNames: []string{"dev"},
			want:      []string{"-dev", "-a", ":5000"},
		},
		{
			name:      "bool flag with explicit value",
			args:      []string{"-reissue=false"},
			boolNames: []string{"reissue"},
			want:      []string{"-reissue=false"},
		},
		{
			name:  "empty",
			args:  nil,
			names: []string{"c"},
			want:  []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FilterArgs(tt.args, tt.names, tt.boolNames...)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestConfigPath(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"short", []string{"-c", "/etc/identity.yaml"}, "/etc/identity.yaml"},
		{"long", []string{"-config=/etc/identity.json"}, "/etc/identity.json"},
		{"mixed with server flags", []string{"-a", ":5000", "-dev", "-c", "conf.yml"}, "conf.yml"},
		{"absent", []string{"-a", ":5000"}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ConfigPath(tt.args))
		})
	}
}
