package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFieldSpec(t *testing.T) {
	tests := []struct {
		input   string
		want    FieldSpec
		wantErr bool
	}{
		{input: "post_content", want: FieldSpec{Raw: "post_content", Kind: FieldKindPlain, Name: "post_content"}},
		{input: " post_title ", want: FieldSpec{Raw: "post_title", Kind: FieldKindPlain, Name: "post_title"}},
		{input: "meta:_yoast_wpseo_metadesc", want: FieldSpec{Raw: "meta:_yoast_wpseo_metadesc", Kind: FieldKindMeta, Name: "_yoast_wpseo_metadesc"}},
		{input: "meta:a:b", want: FieldSpec{Raw: "meta:a:b", Kind: FieldKindMeta, Name: "a:b"}},
		{input: "category:name", want: FieldSpec{Raw: "category:name", Kind: FieldKindTaxonomy, Name: "name", Taxonomy: "category"}},
		{input: "", wantErr: true},
		{input: "meta:", wantErr: true},
		{input: ":name", wantErr: true},
		{input: "category:", wantErr: true},
		{input: "a:b:c", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseFieldSpec(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFieldPriority_Rank(t *testing.T) {
	p := DefaultFieldPriority()

	assert.Equal(t, 0, p.Rank("post_content"))
	assert.Equal(t, 1, p.Rank("post_excerpt"))
	assert.Equal(t, 2, p.Rank("post_title"))
	assert.Equal(t, 3, p.Rank("description"))
	assert.Equal(t, 4, p.Rank("category:name"))
	assert.Equal(t, 5, p.Rank("meta:_subtitle"))

	assert.Less(t, p.Rank("post_content"), p.Rank("post_title"))
	assert.Less(t, p.Rank("guid"), p.Rank("post_tag:name"))
	assert.Less(t, p.Rank("post_tag:name"), p.Rank("meta:seo"))
}

func TestFieldPriority_NamespacedTierOnlyForUnmatchedFields(t *testing.T) {
	p := FieldPriority{"*:*", "category:name", "*"}
	assert.Equal(t, 1, p.Rank("category:name"))
	assert.Equal(t, 0, p.Rank("post_tag:name"))
	assert.Equal(t, 0, p.Rank("meta:seo"))
	assert.Equal(t, 2, p.Rank("post_title"))

	p = FieldPriority{"post_title", "*"}
	assert.Equal(t, 1, p.Rank("category:name"))
}

func TestFieldPriority_RankWithoutWildcard(t *testing.T) {
	p := FieldPriority{"name", "description"}
	assert.Equal(t, 0, p.Rank("name"))
	assert.Equal(t, 1, p.Rank("description"))
	assert.Equal(t, 2, p.Rank("slug"))
}
