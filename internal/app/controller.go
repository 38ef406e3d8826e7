package app

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/gorilla/mux"
	"golang.org/x/exp/slices"

	"github.com/vitrinehq/vitrine/internal/config"
	"github.com/vitrinehq/vitrine/internal/domain/entity"
	"github.com/vitrinehq/vitrine/internal/domain/repository"
)

type controller struct {
	cfg       *config.StorageConfig
	presigner repository.Presigner
	objects   repository.ObjectRepository
}

// Initiate a multipart upload and return its upload ID.
func (c *controller) initiateUpload(w http.ResponseWriter, r *http.Request) error {
	if !c.cfg.Configured() {
		return &AppError{http.StatusInternalServerError, "storage config missing"}
	}
	var data InitiateRequest
	if err := parseJSON(r, &data); err != nil {
		return &AppError{http.StatusBadRequest, fmt.Sprintf("cannot parse JSON from request body: %v", err)}
	}
	if data.FileName == "" || data.ContentType == "" {
		return &AppError{http.StatusBadRequest, "fileName and contentType are required"}
	}
	uploadId, err := c.presigner.CreateMultipart(data.FileName, data.ContentType)
	if err != nil {
		return fmt.Errorf("failed to create multipart upload: %v", err)
	}
	return replyJSON(w, InitiateResponse{uploadId}, http.StatusOK)
}

// Presign a time-limited PUT URL for a single part of an upload.
func (c *controller) presignPart(w http.ResponseWriter, r *http.Request) error {
	if !c.cfg.Configured() {
		return &AppError{http.StatusInternalServerError, "storage config missing"}
	}
	var data PartRequest
	if err := parseJSON(r, &data); err != nil {
		return &AppError{http.StatusBadRequest, fmt.Sprintf("cannot parse JSON from request body: %v", err)}
	}
	if data.FileName == "" || data.UploadId == "" || data.PartNumber < 1 {
		return &AppError{http.StatusBadRequest, "fileName, uploadId, and partNumber are required"}
	}
	url, err := c.presigner.PresignPart(data.FileName, data.UploadId, data.PartNumber)
	if err != nil {
		if isNoSuchUpload(err) {
			return &AppError{http.StatusNotFound, "upload ID does not exist"}
		}
		return fmt.Errorf("failed to presign upload part: %v", err)
	}
	return replyJSON(w, PartResponse{url}, http.StatusOK)
}

// Complete a multipart upload and record the finished object.
func (c *controller) completeUpload(w http.ResponseWriter, r *http.Request) error {
	if !c.cfg.Configured() {
		return &AppError{http.StatusInternalServerError, "storage config missing"}
	}
	var data CompleteRequest
	if err := parseJSON(r, &data); err != nil {
		return &AppError{http.StatusBadRequest, fmt.Sprintf("cannot parse JSON from request body: %v", err)}
	}
	if data.FileName == "" || data.UploadId == "" || len(data.Parts) == 0 {
		return &AppError{http.StatusBadRequest, "fileName, uploadId, and parts are required"}
	}
	for _, part := range data.Parts {
		if part.ETag == "" {
			return &AppError{http.StatusBadRequest, fmt.Sprintf("part %d has no etag", part.PartNumber)}
		}
	}
	// Clients may submit parts in completion order; the storage backend
	// requires them sorted by part number.
	parts := make([]*entity.Part, 0, len(data.Parts))
	for _, part := range data.Parts {
		parts = append(parts, &entity.Part{ETag: part.ETag, PartNumber: part.PartNumber})
	}
	slices.SortFunc(parts, func(a, b *entity.Part) int {
		return int(a.PartNumber - b.PartNumber)
	})
	location, err := c.presigner.CompleteMultipart(data.FileName, data.UploadId, parts)
	if err != nil {
		if isNoSuchUpload(err) {
			return &AppError{http.StatusNotFound, "upload ID does not exist"}
		}
		return fmt.Errorf("failed to complete multipart upload: %v", err)
	}
	publicUrl := c.publicUrl(data.FileName)
	object := entity.NewObject(data.FileName, data.ContentType, folderOf(data.FileName), publicUrl, data.Size, time.Now().Unix())
	object.UploadId = data.UploadId
	c.record(object)
	return replyJSON(w, CompleteResponse{publicUrl, location}, http.StatusOK)
}

// Abort a multipart upload so no orphaned sessions accumulate server-side.
func (c *controller) abortUpload(w http.ResponseWriter, r *http.Request) error {
	if !c.cfg.Configured() {
		return &AppError{http.StatusInternalServerError, "storage config missing"}
	}
	var data AbortRequest
	if err := parseJSON(r, &data); err != nil {
		return &AppError{http.StatusBadRequest, fmt.Sprintf("cannot parse JSON from request body: %v", err)}
	}
	if data.FileName == "" || data.UploadId == "" {
		return &AppError{http.StatusBadRequest, "fileName and uploadId are required"}
	}
	if err := c.presigner.AbortMultipart(data.FileName, data.UploadId); err != nil {
		return fmt.Errorf("failed to abort multipart upload: %v", err)
	}
	return replyJSON(w, struct{}{}, http.StatusOK)
}

// Presign a direct single-PUT URL for small objects.
func (c *controller) presignDirect(w http.ResponseWriter, r *http.Request) error {
	if !c.cfg.Configured() {
		return &AppError{http.StatusInternalServerError, "storage config missing"}
	}
	var data PresignRequest
	if err := parseJSON(r, &data); err != nil {
		return &AppError{http.StatusBadRequest, fmt.Sprintf("cannot parse JSON from request body: %v", err)}
	}
	if data.FileName == "" || data.ContentType == "" {
		return &AppError{http.StatusBadRequest, "fileName and contentType are required"}
	}
	url, err := c.presigner.PresignPut(data.FileName, data.ContentType)
	if err != nil {
		return fmt.Errorf("failed to presign upload: %v", err)
	}
	publicUrl := c.publicUrl(data.FileName)
	c.record(entity.NewObject(data.FileName, data.ContentType, folderOf(data.FileName), publicUrl, data.Size, time.Now().Unix()))
	return replyJSON(w, PresignResponse{url, publicUrl}, http.StatusOK)
}

// List the recorded objects for the showcase pages, most recent first.
func (c *controller) listObjects(w http.ResponseWriter, r *http.Request) error {
	objects, err := c.objects.List()
	if err != nil {
		return fmt.Errorf("failed to list objects: %v", err)
	}
	resp := ListObjectsResponse{Objects: make([]ObjectResponse, 0, len(objects))}
	for _, object := range objects {
		resp.Objects = append(resp.Objects, objectResponse(object))
	}
	return replyJSON(w, resp, http.StatusOK)
}

// Get a single recorded object by its storage key.
func (c *controller) getObject(w http.ResponseWriter, r *http.Request) error {
	key := mux.Vars(r)["key"]
	object, err := c.objects.GetByKey(key)
	if err != nil {
		return fmt.Errorf("failed to get object: %v", err)
	}
	if object == nil {
		return &AppError{http.StatusNotFound, "object does not exist"}
	}
	return replyJSON(w, objectResponse(object), http.StatusOK)
}

// Mark a recorded object as deleted so the showcase pages stop listing it.
// The stored bytes are untouched; lifecycle rules on the bucket clean those.
func (c *controller) deleteObject(w http.ResponseWriter, r *http.Request) error {
	key := mux.Vars(r)["key"]
	object, err := c.objects.GetByKey(key)
	if err != nil {
		return fmt.Errorf("failed to get object: %v", err)
	}
	if object == nil {
		return &AppError{http.StatusNotFound, "object does not exist"}
	}
	object.SetStatus(entity.ObjectStatusDeleted)
	if err := c.objects.Save(object); err != nil {
		return fmt.Errorf("failed to delete object: %v", err)
	}
	return replyJSON(w, struct{}{}, http.StatusOK)
}

// Record the finished upload in the object registry. The object exists in
// storage either way; the registry entry is advisory and must not fail an
// otherwise finished upload.
func (c *controller) record(object *entity.Object) {
	if err := c.objects.Save(object); err != nil {
		log.Printf("failed to record uploaded object %q: %v", object.Key, err)
	}
}

func (c *controller) publicUrl(key string) string {
	return strings.TrimSuffix(c.cfg.PublicURL, "/") + "/" + key
}

func objectResponse(object *entity.Object) ObjectResponse {
	return ObjectResponse{
		Key:         object.Key,
		ContentType: object.ContentType,
		Size:        object.Size,
		PublicUrl:   object.PublicURL,
		Status:      object.Status,
		CreatedAt:   object.CreatedAt,
	}
}

func folderOf(key string) string {
	if i := strings.LastIndex(key, "/"); i > 0 {
		return key[:i]
	}
	return ""
}

func isNoSuchUpload(err error) bool {
	var aerr awserr.Error
	if errors.As(err, &aerr) {
		return aerr.Code() == s3.ErrCodeNoSuchUpload
	}
	return false
}

// Parse incoming request body as JSON object.
func parseJSON(r *http.Request, data interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(data); err != nil {
		return err
	}
	return nil
}

// Respond the output with JSON format to the client.
func replyJSON(w http.ResponseWriter, data interface{}, code int) error {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		return err
	}
	return nil
}
