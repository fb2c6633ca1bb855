package photo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errs "vkbackup/pkg/errors"
	"vkbackup/pkg/vk"
)

func sizes(tags ...string) []vk.Size {
	out := make([]vk.Size, len(tags))
	for i, tag := range tags {
		out[i] = vk.Size{Type: tag, URL: "https://cdn.example/" + tag + ".jpg"}
	}
	return out
}

func TestSelectMaxSize(t *testing.T) {
	tests := []struct {
		name string
		tags []string
		want SizeTag
	}{
		{"ascending", []string{"s", "m", "x"}, "x"},
		{"unordered", []string{"z", "m"}, "z"},
		{"w is largest", []string{"w", "z", "y", "r", "q", "p", "o", "x", "m", "s"}, "w"},
		{"o above x despite alphabet", []string{"x", "o"}, "o"},
		{"unknown tags ignored", []string{"k", "m"}, "m"},
		{"single rendition", []string{"s"}, "s"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records, err := SelectMaxSize([]vk.Photo{{
				ID:    1,
				Date:  1700000000,
				Likes: vk.Likes{Count: 12},
				Sizes: sizes(tt.tags...),
			}})
			require.NoError(t, err)
			require.Len(t, records, 1)

			r := records[0]
			assert.Equal(t, tt.want, r.Size)
			assert.Equal(t, "https://cdn.example/"+string(tt.want)+".jpg", r.URL)
			assert.Equal(t, "12_1700000000_"+string(tt.want)+".jpg", r.FileName)
			assert.Equal(t, 12, r.LikesCount)
			assert.Equal(t, int64(1700000000), r.Date)
		})
	}
}

func TestSelectMaxSizeKeepsOrder(t *testing.T) {
	records, err := SelectMaxSize([]vk.Photo{
		{ID: 3, Likes: vk.Likes{Count: 1}, Date: 30, Sizes: sizes("m")},
		{ID: 1, Likes: vk.Likes{Count: 2}, Date: 10, Sizes: sizes("x")},
		{ID: 2, Likes: vk.Likes{Count: 3}, Date: 20, Sizes: sizes("z")},
	})
	require.NoError(t, err)

	var ids []int64
	for _, r := range records {
		ids = append(ids, r.PhotoID)
	}
	assert.Equal(t, []int64{3, 1, 2}, ids)
}

func TestSelectMaxSizeMissingRenditions(t *testing.T) {
	for _, tags := range [][]string{nil, {"k", "?"}} {
		_, err := SelectMaxSize([]vk.Photo{
			{ID: 1, Sizes: sizes("x")},
			{ID: 99, Sizes: sizes(tags...)},
		})
		require.Error(t, err)
		assert.True(t, errs.IsMissingData(err))
		assert.Contains(t, err.Error(), "99")
	}
}

func TestUploadName(t *testing.T) {
	tests := []struct {
		staged string
		want   string
	}{
		{"123_456_x.jpg", "123_456.jpg"},
		{"0_1700000000_w.jpg", "0_1700000000.jpg"},
		{"_x.jpg", ".jpg"},
	}
	for _, tt := range tests {
		got, err := UploadName(tt.staged)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}

	for _, tag := range SizeRank {
		got, err := UploadName(FileName(5, 10, SizeTag(tag)))
		require.NoError(t, err)
		assert.Equal(t, "5_10.jpg", got)
	}

	_, err := UploadName("a.jpg")
	assert.True(t, errs.IsMissingData(err))
}

func TestSizeFromName(t *testing.T) {
	tag, err := SizeFromName("123_456_x.jpg")
	require.NoError(t, err)
	assert.Equal(t, SizeTag("x"), tag)

	tag, err = SizeFromName(FileName(1, 2, "z"))
	require.NoError(t, err)
	assert.Equal(t, SizeTag("z"), tag)

	_, err = SizeFromName("x.jpg")
	assert.True(t, errs.IsMissingData(err))
}

func TestRank(t *testing.T) {
	assert.Equal(t, 0, SizeTag("s").Rank())
	assert.Equal(t, 9, SizeTag("w").Rank())
	assert.Equal(t, -1, SizeTag("").Rank())
	assert.Equal(t, -1, SizeTag("xx").Rank())
}
