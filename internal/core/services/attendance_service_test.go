package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLevelAllows(t *testing.T) {
	tests := []struct {
		name  string
		level string
		belt  string
		want  bool
	}{
		{"open class", "ALL", "WHITE", true},
		{"empty level", "", "WHITE", true},
		{"beginner class accepts anyone", "BEGINNER", "BLACK", true},
		{"kids class not belt gated", "KIDS", "WHITE", true},
		{"exact belt", "BLUE", "BLUE", true},
		{"higher belt", "BLUE", "PURPLE", true},
		{"lower belt blocked", "PURPLE", "BLUE", false},
		{"white into blue class", "BLUE", "WHITE", false},
		{"unrecognized level is open", "COMP-TEAM", "WHITE", true},
		{"corrupt member belt blocked", "BLUE", "CORAL", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, levelAllows(tt.level, tt.belt))
		})
	}
}
