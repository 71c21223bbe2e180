// SPDX-License-Identifier: MPL-2.0

package registry

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hd2mm/hd2mm/pkg/manifest"
)

func samplePackage(t *testing.T) *Package {
	t.Helper()
	d := stage(t, guidA, "Alpha")
	return newPackage(d.Manifest, d.Result, d.Dir, time.Time{})
}

func TestPackage_DefaultState(t *testing.T) {
	t.Parallel()

	p := samplePackage(t)
	require.Len(t, p.Options, 2)
	assert.True(t, p.Options[0].Enabled)
	assert.Equal(t, manifest.NoSubOption, p.Options[0].Selected)
	assert.Equal(t, 0, p.Options[1].Selected)
	assert.Same(t, &p.Manifest.Options[1], p.Options[1].Def)
}

func TestPackage_Repair(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		enabled      []bool
		selected     []int
		wantEnabled  []bool
		wantSelected []int
	}{
		{
			name:         "absent arrays",
			wantEnabled:  []bool{true, true},
			wantSelected: []int{manifest.NoSubOption, 0},
		},
		{
			name:         "short arrays are padded",
			enabled:      []bool{false},
			selected:     []int{5},
			wantEnabled:  []bool{false, true},
			wantSelected: []int{manifest.NoSubOption, 0},
		},
		{
			name:         "long arrays are truncated",
			enabled:      []bool{true, false, true, false},
			selected:     []int{-1, 1, 0, 0},
			wantEnabled:  []bool{true, false},
			wantSelected: []int{manifest.NoSubOption, 1},
		},
		{
			name:         "out of range selection is clamped",
			enabled:      []bool{true, true},
			selected:     []int{0, 9},
			wantEnabled:  []bool{true, true},
			wantSelected: []int{manifest.NoSubOption, 0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			p := samplePackage(t)
			p.Repair(tt.enabled, tt.selected)
			assert.Len(t, p.Options, len(p.Manifest.Options))
			assert.Equal(t, tt.wantEnabled, p.EnabledFlags())
			assert.Equal(t, tt.wantSelected, p.Selections())
		})
	}
}

func TestPackage_SetOptionAndSelect(t *testing.T) {
	t.Parallel()

	p := samplePackage(t)
	require.NoError(t, p.SetOption(0, false))
	assert.False(t, p.Options[0].Enabled)

	require.NoError(t, p.SelectSubOption(1, 1))
	assert.Equal(t, 1, p.Options[1].Selected)

	assert.ErrorIs(t, p.SetOption(2, true), ErrOptionIndex)
	assert.ErrorIs(t, p.SelectSubOption(0, 0), ErrOptionIndex)
	assert.ErrorIs(t, p.SelectSubOption(1, 2), ErrOptionIndex)
}

func TestPackage_Files(t *testing.T) {
	t.Parallel()

	p := samplePackage(t)
	assert.Equal(t, [][]string{
		{"base/9ba626afa44a3aa3.patch_0"},
		{"red/9ba626afa44a3aa3.patch_0"},
	}, p.OptionFiles())
	assert.Equal(t, []string{
		"base/9ba626afa44a3aa3.patch_0",
		"red/9ba626afa44a3aa3.patch_0",
	}, p.Files())

	require.NoError(t, p.SelectSubOption(1, 1))
	require.NoError(t, p.SetOption(0, false))
	assert.Equal(t, []string{"blue/9ba626afa44a3aa3.patch_0"}, p.Files())
	assert.Equal(t, [][]string{{"blue/9ba626afa44a3aa3.patch_0"}}, p.OptionFiles())
}
