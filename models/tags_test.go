// ABOUTME: Tests for contact tag handling
// ABOUTME: Covers normalization, AND matching and suggestion ordering
package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeTags(t *testing.T) {
	got := NormalizeTags([]string{" VIP", "vip", "", "Partner", "  ", "partner", "lead"})
	assert.Equal(t, TagSet{"VIP", "Partner", "lead"}, got)
}

func TestParseTagsEmpty(t *testing.T) {
	assert.Equal(t, TagSet{}, ParseTags("   "))
	assert.Equal(t, TagSet{"a", "b"}, ParseTags("a,,b,"))
}

func TestTagSetHasAll(t *testing.T) {
	tags := TagSet{"vip", "partner", "emea"}
	assert.True(t, tags.HasAll([]string{"VIP", "partner"}))
	assert.False(t, tags.HasAll([]string{"vip", "apac"}))
	assert.True(t, tags.HasAll(nil))
}

func TestTagSetMarshalNilAsArray(t *testing.T) {
	var tags TagSet
	b, err := json.Marshal(tags)
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(b))
}

func TestTagSetUnmarshalArray(t *testing.T) {
	var tags TagSet
	require.NoError(t, json.Unmarshal([]byte(`["b"," a ","B"]`), &tags))
	assert.Equal(t, TagSet{"b", "a"}, tags)
}

func TestSuggestTags(t *testing.T) {
	known := []string{"partner", "Prospect", "vip", "press", "PARTNER"}

	assert.Equal(t, []string{"press", "Prospect"}, SuggestTags(known, TagSet{"partner"}, "p", 0))
	assert.Equal(t, []string{"partner"}, SuggestTags(known, nil, "pa", 5))
	assert.Len(t, SuggestTags(known, nil, "", 2), 2)
	assert.Empty(t, SuggestTags(known, nil, "zzz", 0))
}
