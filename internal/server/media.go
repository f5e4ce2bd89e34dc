package server

import (
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/pavel-fokin/media-catalog/internal/media"
)

// multipartMemory is how much of an upload is buffered in memory before
// the multipart reader spills to a temporary file
const multipartMemory = 8 << 20

type uploadResponse struct {
	Message  string `json:"message"`
	FileName string `json:"fileName"`
}

func uploadMedia(mediaService *media.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		contentID, err := pathID(r, "contentId")
		if err != nil {
			writeError(w, err)
			return
		}

		if r.ContentLength > mediaService.MaxSize()+multipartOverhead {
			err := rejectOversized(r, mediaService, contentID)
			if !clientError(err) {
				slog.Error("Upload failed", "error", err, "content_id", contentID)
			}
			writeError(w, err)
			return
		}

		// Parse multipart form
		if err := r.ParseMultipartForm(multipartMemory); err != nil {
			var maxErr *http.MaxBytesError
			if errors.As(err, &maxErr) {
				writeError(w, mediaService.RejectOversized(r.Context(), contentID, ""))
				return
			}
			writeError(w, media.ErrEmptyUpload)
			return
		}
		defer r.MultipartForm.RemoveAll()

		file, header, err := formFile(r)
		if err != nil {
			writeError(w, media.ErrEmptyUpload)
			return
		}
		defer file.Close()

		result, err := mediaService.Upload(r.Context(), &media.UploadRequest{
			ContentID: contentID,
			FileName:  header.Filename,
			MediaType: header.Header.Get("Content-Type"),
			Size:      header.Size,
			Content:   file,
		})
		if err != nil {
			if !clientError(err) {
				slog.Error("Upload failed", "error", err, "content_id", contentID, "filename", header.Filename)
			}
			writeError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, uploadResponse{
			Message:  "File uploaded successfully.",
			FileName: result.FileName,
		})
	}
}

// formFile returns the uploaded file from the "arquivo" field, or from
// "file" for clients that use the generic name
func formFile(r *http.Request) (multipart.File, *multipart.FileHeader, error) {
	file, header, err := r.FormFile("arquivo")
	if errors.Is(err, http.ErrMissingFile) {
		return r.FormFile("file")
	}
	return file, header, err
}

// rejectOversized classifies an upload whose body is over the limit. Only the
// multipart headers up to the file part are read.
func rejectOversized(r *http.Request, mediaService *media.Service, contentID int64) error {
	reader, err := r.MultipartReader()
	if err != nil {
		return media.ErrEmptyUpload
	}
	for {
		part, err := reader.NextPart()
		if err != nil {
			var maxErr *http.MaxBytesError
			if errors.As(err, &maxErr) {
				return mediaService.RejectOversized(r.Context(), contentID, "")
			}
			return media.ErrEmptyUpload
		}
		if isFileField(part.FormName()) && part.FileName() != "" {
			return mediaService.RejectOversized(r.Context(), contentID, part.Header.Get("Content-Type"))
		}
	}
}

func isFileField(name string) bool {
	return name == "arquivo" || name == "file"
}

func downloadMedia(mediaService *media.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		fileName := r.PathValue("fileName")

		result, err := mediaService.Download(r.Context(), fileName)
		if err != nil {
			if !clientError(err) {
				slog.Error("Download failed", "error", err, "file_name", fileName)
			}
			writeError(w, err)
			return
		}
		defer result.Content.Close()

		// Set response headers
		w.Header().Set("Content-Type", result.MediaType)
		w.Header().Set("Content-Disposition", `attachment; filename="`+result.FileName+`"`)
		w.Header().Set("Content-Length", strconv.FormatInt(result.Size, 10))
		w.WriteHeader(http.StatusOK)

		if _, err := io.Copy(w, result.Content); err != nil {
			slog.Warn("Download interrupted", "error", err, "file_name", fileName)
		}
	}
}

func removeMedia(mediaService *media.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		contentID, err := pathID(r, "contentId")
		if err != nil {
			writeError(w, err)
			return
		}

		if _, err := mediaService.Remove(r.Context(), contentID); err != nil {
			if !clientError(err) {
				slog.Error("Remove failed", "error", err, "content_id", contentID)
			}
			writeError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, messageResponse{Message: "File removed successfully."})
	}
}
