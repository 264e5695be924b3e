package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNextName(t *testing.T) {
	cases := []struct {
		name    string
		oldName string
		suffix  string
		want    string
	}{
		{"plain name gains suffix", "Biology", "42", "Biology#42"},
		{"existing suffix replaced", "Biology#41", "42", "Biology#42"},
		{"only first marker counts", "Bio#logy#41", "42", "Bio#42"},
		{"leading marker keeps empty base", "#41", "42", "#42"},
		{"empty name", "", "7", "#7"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, NextName(tc.oldName, tc.suffix))
		})
	}
}
