package response

import "time"

type Error struct {
	Success bool   `json:"success" example:"false"`
	Error   string `json:"error" example:"message"`
}

// Failure is the bare error shape used for 401 and missing frames.
type Failure struct {
	Error string `json:"error" example:"Unauthorized"`
}

type Health struct {
	Status string `json:"status" example:"ok"`
}

type Upload struct {
	Success  bool   `json:"success" example:"true"`
	Key      string `json:"key" example:"frames/11_14_2023/1700000000000-frame.jpg"`
	URL      string `json:"url" example:"/api/get-frame/frames/11_14_2023/1700000000000-frame.jpg"`
	Enqueued bool   `json:"enqueued" example:"true"`
}

type Days struct {
	Success bool     `json:"success" example:"true"`
	Days    []string `json:"days"`
}

type Frame struct {
	Key      string    `json:"key"`
	Size     int64     `json:"size"`
	Uploaded time.Time `json:"uploaded"`
	URL      string    `json:"url"`
}

type Frames struct {
	Success bool    `json:"success" example:"true"`
	Day     string  `json:"day" example:"11_14_2023"`
	Count   int     `json:"count" example:"1"`
	Frames  []Frame `json:"frames"`
}

type Rows struct {
	Success bool             `json:"success" example:"true"`
	Results []map[string]any `json:"results"`
}

type Row struct {
	Success bool           `json:"success" example:"true"`
	Result  map[string]any `json:"result"`
}

type Deleted struct {
	Success bool `json:"success" example:"true"`
}
