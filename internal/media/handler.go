package media

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/mediahub/service/internal/auth"
	"github.com/mediahub/service/internal/response"
)

// uploadField is the multipart form field carrying the file.
const uploadField = "file"

// Handler holds HTTP handlers for media endpoints.
type Handler struct {
	svc            *Service
	maxUploadBytes int64
}

// NewHandler creates a new media Handler.
func NewHandler(svc *Service, maxUploadBytes int64) *Handler {
	return &Handler{svc: svc, maxUploadBytes: maxUploadBytes}
}

// Routes returns the media routes, to be mounted under "/media".
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.List)
	r.Post("/", h.Upload)
	r.Get("/{id}", h.Get)
	r.Get("/{id}/url", h.GetURL)
	return r
}

type uploadData struct {
	ID string `json:"id" example:"e7eedc79-0707-4fe4-8734-526b7ef13a7b"`
}

type urlData struct {
	URL string `json:"url" example:"https://media.example.com/media-data/e7eedc79-0707-4fe4-8734-526b7ef13a7b.png?X-Amz-Signature=..."`
}

type mediaData struct {
	ID   string `json:"id"   example:"e7eedc79-0707-4fe4-8734-526b7ef13a7b"`
	Path string `json:"path" example:"/api/media/media-data/e7eedc79-0707-4fe4-8734-526b7ef13a7b.png?X-Amz-Signature=..."`
}

// Upload godoc
//
//	@Summary		Upload media
//	@Description	Stores the file under a new UUID, using the subtype of the part's Content-Type as file extension, and publishes a media created event.
//	@Tags			media
//	@Accept			mpfd
//	@Produce		json
//	@Security		BearerAuth
//	@Param			file	formData	file	true	"Media file; its part Content-Type is required"
//	@Success		201		{object}	response.Envelope{data=uploadData}
//	@Failure		400		{object}	response.Envelope
//	@Failure		401		{object}	response.Envelope
//	@Failure		413		{object}	response.Envelope
//	@Failure		502		{object}	response.Envelope
//	@Router			/media [post]
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)

	mr, err := r.MultipartReader()
	if err != nil {
		response.BadRequest(w, "multipart/form-data body required")
		return
	}

	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			response.BadRequest(w, "form field \"file\" is required")
			return
		}
		if err != nil {
			writeBodyError(w, err)
			return
		}
		if part.FormName() != uploadField {
			_ = part.Close()
			continue
		}

		data, err := io.ReadAll(part)
		if err != nil {
			writeBodyError(w, err)
			return
		}

		id, err := h.svc.Upload(r.Context(), part.Header.Get("Content-Type"), data)
		if err != nil {
			writeError(w, r, err)
			return
		}
		response.Created(w, uploadData{ID: id.String()})
		return
	}
}

// GetURL godoc
//
//	@Summary		Get media URL
//	@Description	Returns a presigned URL for the media, valid for the configured expiration.
//	@Tags			media
//	@Produce		json
//	@Param			id	path		string	true	"Media UUID"
//	@Success		200	{object}	response.Envelope{data=urlData}
//	@Failure		400	{object}	response.Envelope
//	@Failure		404	{object}	response.Envelope
//	@Failure		502	{object}	response.Envelope
//	@Router			/media/{id}/url [get]
func (h *Handler) GetURL(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	u, err := h.svc.URL(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	response.OK(w, urlData{URL: u})
}

// Get godoc
//
//	@Summary		Get media
//	@Description	Returns the media with a freshly presigned access path.
//	@Tags			media
//	@Produce		json
//	@Param			id	path		string	true	"Media UUID"
//	@Success		200	{object}	response.Envelope{data=mediaData}
//	@Failure		400	{object}	response.Envelope
//	@Failure		404	{object}	response.Envelope
//	@Failure		502	{object}	response.Envelope
//	@Router			/media/{id} [get]
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	m, err := h.svc.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	p, err := h.svc.Path(r.Context(), m)
	if err != nil {
		writeError(w, r, err)
		return
	}
	response.OK(w, mediaData{ID: m.ID.String(), Path: p})
}

// List godoc
//
//	@Summary		List media
//	@Description	Pages through stored media in key order. Paths are only computed when withPath=true.
//	@Tags			media
//	@Produce		json
//	@Param			first		query		int		false	"Page size (default 20, max 100)"
//	@Param			offset		query		int		false	"Entries to skip"
//	@Param			withPath	query		bool	false	"Include presigned access paths"
//	@Success		200			{object}	response.Envelope{data=Connection}
//	@Failure		400			{object}	response.Envelope
//	@Failure		502			{object}	response.Envelope
//	@Router			/media [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	first, err := intParam(q.Get("first"))
	if err != nil {
		response.BadRequest(w, "first must be an integer")
		return
	}
	offset, err := intParam(q.Get("offset"))
	if err != nil {
		response.BadRequest(w, "offset must be an integer")
		return
	}
	withPath := q.Get("withPath") == "true"

	conn, err := h.svc.List(r.Context(), first, offset, withPath)
	if err != nil {
		writeError(w, r, err)
		return
	}
	response.OK(w, conn)
}

func parseID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "invalid media id")
		return uuid.Nil, false
	}
	return id, true
}

func intParam(raw string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	return strconv.Atoi(raw)
}

func writeBodyError(w http.ResponseWriter, err error) {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		response.PayloadTooLarge(w, "upload exceeds "+strconv.FormatInt(maxErr.Limit, 10)+" bytes")
		return
	}
	response.BadRequest(w, "malformed multipart body")
}

// writeError maps service errors onto HTTP responses.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, auth.ErrUnauthorized):
		response.Unauthorized(w, "authentication required")
	case errors.Is(err, auth.ErrForbidden):
		response.Forbidden(w, err.Error())
	case errors.Is(err, ErrInvalidMedia):
		response.BadRequest(w, err.Error())
	case errors.Is(err, ErrNotFound):
		response.NotFound(w, err.Error())
	case errors.Is(err, ErrNotify):
		slog.ErrorContext(r.Context(), "media event delivery failed", "err", err)
		response.BadGateway(w, "media created event could not be delivered")
	case errors.Is(err, ErrStore):
		slog.ErrorContext(r.Context(), "object store failure", "err", err)
		response.BadGateway(w, "object store unavailable")
	default:
		slog.ErrorContext(r.Context(), "unexpected media error", "err", err)
		response.InternalError(w)
	}
}
