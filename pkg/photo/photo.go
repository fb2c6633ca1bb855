// Package photo picks the largest rendition of each source photo and
// derives the file names used locally and at the destinations.
package photo

import (
	"fmt"
	"strings"

	errs "vkbackup/pkg/errors"
	"vkbackup/pkg/vk"
)

// SizeRank lists size tags from the smallest rendition to the largest.
// The order is fixed by the source API and is not alphabetical.
const SizeRank = "smxopqryzw"

// stagedSuffixLen is the length of the "_<tag>.jpg" suffix of a staged name
const stagedSuffixLen = len("_x.jpg")

// SizeTag is a single-letter rendition code
type SizeTag string

// Rank returns the position of t in SizeRank, or -1 for an unknown tag
func (t SizeTag) Rank() int {
	if len(t) != 1 {
		return -1
	}
	return strings.IndexByte(SizeRank, t[0])
}

// Record is the chosen rendition of one source photo
type Record struct {
	PhotoID    int64   `json:"photo_id"`
	LikesCount int     `json:"likes_count"`
	Date       int64   `json:"date"`
	Size       SizeTag `json:"size"`
	FileName   string  `json:"file_name"`
	URL        string  `json:"url"`
}

// SelectMaxSize picks the highest-ranked rendition of every photo, keeping
// the input order. A photo without any known rendition fails the whole call.
func SelectMaxSize(photos []vk.Photo) ([]Record, error) {
	records := make([]Record, 0, len(photos))
	for _, p := range photos {
		best, ok := largest(p.Sizes)
		if !ok {
			return nil, errs.MissingData("photo %d has no usable renditions", p.ID)
		}

		tag := SizeTag(best.Type)
		records = append(records, Record{
			PhotoID:    p.ID,
			LikesCount: p.Likes.Count,
			Date:       p.Date,
			Size:       tag,
			FileName:   FileName(p.Likes.Count, p.Date, tag),
			URL:        best.URL,
		})
	}
	return records, nil
}

func largest(sizes []vk.Size) (vk.Size, bool) {
	bestRank := -1
	var best vk.Size
	for _, s := range sizes {
		if r := SizeTag(s.Type).Rank(); r > bestRank {
			bestRank = r
			best = s
		}
	}
	return best, bestRank >= 0
}

// FileName builds the staged name {likes}_{date}_{tag}.jpg
func FileName(likes int, date int64, tag SizeTag) string {
	return fmt.Sprintf("%d_%d_%s.jpg", likes, date, tag)
}

// UploadName drops the "_<tag>.jpg" suffix of a staged name and appends
// ".jpg", so "123_456_x.jpg" becomes "123_456.jpg"
func UploadName(staged string) (string, error) {
	if len(staged) < stagedSuffixLen {
		return "", errs.MissingData("staged name %q is shorter than its size suffix", staged)
	}
	return staged[:len(staged)-stagedSuffixLen] + ".jpg", nil
}

// SizeFromName returns the size tag embedded in a staged name
func SizeFromName(staged string) (SizeTag, error) {
	if len(staged) < stagedSuffixLen {
		return "", errs.MissingData("staged name %q is shorter than its size suffix", staged)
	}
	return SizeTag(staged[len(staged)-5 : len(staged)-4]), nil
}
