package entity

const (
	ObjectStatusUploaded = "UPLOADED"
	ObjectStatusDeleted  = "DELETED"
)

// The entity of a stored showcase object (app binary, video or other asset).
type Object struct {
	Key         string
	ContentType string
	Size        int64
	Folder      string
	PublicURL   string
	Status      string
	UploadId    string
	CreatedAt   int64
}

func NewObject(key, contentType, folder, publicURL string, size, createdAt int64) *Object {
	return &Object{
		Key:         key,
		ContentType: contentType,
		Size:        size,
		Folder:      folder,
		PublicURL:   publicURL,
		Status:      ObjectStatusUploaded,
		CreatedAt:   createdAt,
	}
}

// Mark the status to the object.
func (o *Object) SetStatus(status string) {
	o.Status = status
}

// The part portion of object data in a multipart upload.
type Part struct {
	ETag       string // Entity tag for the uploaded part.
	PartNumber int64  // Part number that identifies the part.
}
