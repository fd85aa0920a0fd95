package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckHours(t *testing.T) {
	tests := []struct {
		name string
		flag string
		want int
	}{
		{"flag absent uses default", "", 72},
		{"explicit zero", "0", 0},
		{"negative", "-3", -3},
		{"positive", "12", 12},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := slaCheckCmd()
			if tt.flag != "" {
				require.NoError(t, cmd.Flags().Set("hours", tt.flag))
			}
			hours, err := cmd.Flags().GetInt("hours")
			require.NoError(t, err)
			assert.Equal(t, tt.want, checkHours(cmd, hours, 72))
		})
	}
}
