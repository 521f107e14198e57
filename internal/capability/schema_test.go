package capability

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSchemaValidate(t *testing.T) {
	s := Schema{
		"url":   {Type: TypeString, Required: true},
		"limit": {Type: TypeNumber},
		"deep":  {Type: TypeBool},
	}

	tests := []struct {
		name    string
		args    map[string]any
		wantErr string
	}{
		{
			name: "all valid",
			args: map[string]any{"url": "http://x", "limit": 3, "deep": true},
		},
		{
			name: "optional absent",
			args: map[string]any{"url": "http://x"},
		},
		{
			name:    "required missing",
			args:    map[string]any{"limit": 3},
			wantErr: `missing required argument "url"`,
		},
		{
			name:    "wrong type",
			args:    map[string]any{"url": 42},
			wantErr: `argument "url" must be string`,
		},
		{
			name: "float counts as number",
			args: map[string]any{"url": "x", "limit": 2.5},
		},
		{
			name: "unknown args pass through",
			args: map[string]any{"url": "x", "extra": struct{}{}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := s.Validate(tt.args)
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				assert.EqualError(t, err, tt.wantErr)
			}
		})
	}
}

func TestNilSchemaAcceptsAnything(t *testing.T) {
	var s Schema
	assert.NoError(t, s.Validate(map[string]any{"whatever": 1}))
	assert.NoError(t, s.Validate(nil))
}

func TestAnyTypeMatchesEverything(t *testing.T) {
	s := Schema{"v": {Type: TypeAny, Required: true}}
	assert.NoError(t, s.Validate(map[string]any{"v": []any{1, 2}}))
	assert.NoError(t, s.Validate(map[string]any{"v": map[string]any{}}))
	assert.Error(t, s.Validate(map[string]any{}))
}
