package youtube

// APIResponse is the videos.list response of the YouTube Data API v3.
type APIResponse struct {
	Items []Item `json:"items"`
}

type Item struct {
	ID             string         `json:"id"`
	Snippet        Snippet        `json:"snippet"`
	Statistics     Statistics     `json:"statistics"`
	ContentDetails ContentDetails `json:"contentDetails"`
}

type Snippet struct {
	Title        string     `json:"title"`
	Description  string     `json:"description"`
	ChannelTitle string     `json:"channelTitle"`
	PublishedAt  string     `json:"publishedAt"`
	Thumbnails   Thumbnails `json:"thumbnails"`
}

type Thumbnails struct {
	Default *Thumbnail `json:"default"`
	Medium  *Thumbnail `json:"medium"`
	High    *Thumbnail `json:"high"`
}

type Thumbnail struct {
	URL string `json:"url"`
}

// Statistics values are decimal strings in the API.
type Statistics struct {
	ViewCount    string `json:"viewCount"`
	LikeCount    string `json:"likeCount"`
	CommentCount string `json:"commentCount"`
}

type ContentDetails struct {
	Duration string `json:"duration"`
}
