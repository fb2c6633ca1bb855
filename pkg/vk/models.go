package vk

// Photo is one item of a photos.get / photos.getAll response
type Photo struct {
	ID      int64  `json:"id"`
	OwnerID int64  `json:"owner_id"`
	AlbumID int64  `json:"album_id"`
	Date    int64  `json:"date"`
	Likes   Likes  `json:"likes"`
	Sizes   []Size `json:"sizes"`
}

// Likes is present when the request sets extended=1
type Likes struct {
	Count int `json:"count"`
}

// Size is one rendition of a photo
type Size struct {
	Type   string `json:"type"`
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// photosResponse is the envelope returned by the photos.* methods.
// VK answers 200 with an error object instead of a response on failure.
type photosResponse struct {
	Response *photoPage `json:"response"`
	Error    *apiError  `json:"error"`
}

type photoPage struct {
	Count int     `json:"count"`
	Items []Photo `json:"items"`
}

type apiError struct {
	Code    int    `json:"error_code"`
	Message string `json:"error_msg"`
}
