package app

type InitiateRequest struct {
	FileName    string `json:"fileName"`
	ContentType string `json:"contentType"`
}

type InitiateResponse struct {
	UploadId string `json:"uploadId"`
}

type PartRequest struct {
	FileName   string `json:"fileName"`
	UploadId   string `json:"uploadId"`
	PartNumber int64  `json:"partNumber"`
}

type PartResponse struct {
	Url string `json:"url"`
}

type CompleteRequest struct {
	FileName    string `json:"fileName"`
	UploadId    string `json:"uploadId"`
	ContentType string `json:"contentType,omitempty"`
	Size        int64  `json:"size,omitempty"`
	Parts       []Part `json:"parts"`
}

type Part struct {
	ETag       string `json:"etag"`
	PartNumber int64  `json:"partNumber"`
}

type CompleteResponse struct {
	PublicUrl string `json:"publicUrl"`
	Location  string `json:"location"`
}

type AbortRequest struct {
	FileName string `json:"fileName"`
	UploadId string `json:"uploadId"`
}

type PresignRequest struct {
	FileName    string `json:"fileName"`
	ContentType string `json:"contentType"`
	Size        int64  `json:"size,omitempty"`
}

type PresignResponse struct {
	Url       string `json:"url"`
	PublicUrl string `json:"publicUrl"`
}

type ObjectResponse struct {
	Key         string `json:"key"`
	ContentType string `json:"contentType"`
	Size        int64  `json:"size"`
	PublicUrl   string `json:"publicUrl"`
	Status      string `json:"status"`
	CreatedAt   int64  `json:"createdAt"`
}

type ListObjectsResponse struct {
	Objects []ObjectResponse `json:"objects"`
}
