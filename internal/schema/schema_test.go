package schema

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testTemplate = Template{
	Leaf("name"),
	Object("auth",
		Leaf("user"),
		Leaf("password"),
	),
}

type namedMapping map[string]any

func copyLeaf(_ string, value any, present bool) (any, error) {
	if !present {
		return nil, SkipLeaf
	}
	return value, nil
}

func TestWalk(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    map[string]any
		expected map[string]any
	}{
		{
			name: "copies template keys and drops the rest",
			input: map[string]any{
				"name":  "Pizza",
				"extra": "x",
				"auth":  map[string]any{"user": "foo", "password": "bar", "token": "t"},
			},
			expected: map[string]any{
				"name": "Pizza",
				"auth": map[string]any{"user": "foo", "password": "bar"},
			},
		},
		{
			name:     "nil input yields empty output",
			input:    nil,
			expected: map[string]any{},
		},
		{
			name: "named map type is walked like a plain mapping",
			input: map[string]any{
				"name": "Pizza",
				"auth": namedMapping{"user": "foo", "password": "bar"},
			},
			expected: map[string]any{
				"name": "Pizza",
				"auth": map[string]any{"user": "foo", "password": "bar"},
			},
		},
		{
			name: "non-mapping object value is treated as absent",
			input: map[string]any{
				"name": "Pizza",
				"auth": "not-a-map",
			},
			expected: map[string]any{"name": "Pizza"},
		},
		{
			name: "empty nested output is omitted",
			input: map[string]any{
				"name": "Pizza",
				"auth": map[string]any{"other": "x"},
			},
			expected: map[string]any{"name": "Pizza"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			out, err := Walk(testTemplate, tt.input, copyLeaf)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, out)
		})
	}
}

func TestWalk_PathsAndAbort(t *testing.T) {
	t.Parallel()

	var visited []string
	errStop := errors.New("stop")

	_, err := Walk(testTemplate, map[string]any{}, func(path string, _ any, _ bool) (any, error) {
		visited = append(visited, path)
		if path == "auth.user" {
			return nil, errStop
		}
		return nil, SkipLeaf
	})

	require.ErrorIs(t, err, errStop)
	assert.Equal(t, []string{"name", "auth.user"}, visited)
}

func TestTemplate_Keys(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []string{"name", "auth"}, testTemplate.Keys())
	assert.True(t, Leaf("x").IsLeaf())
	assert.False(t, Object("x").IsLeaf())
}

func TestIsEmpty(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		value any
		empty bool
	}{
		{"nil", nil, true},
		{"empty string", "", true},
		{"zero int", 0, true},
		{"zero float", 0.0, true},
		{"false", false, true},
		{"empty slice", []any{}, true},
		{"empty map", map[string]any{}, true},
		{"string", "Drupal", false},
		{"number", 7.4, false},
		{"true", true, false},
		{"slice", []any{"a"}, false},
		{"map", map[string]any{"a": 1}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.empty, IsEmpty(tt.value))
		})
	}
}
